/*
The macros package expands macros in a stream of text lines. You construct
the Expander object and then call the ProcessLine method on each line in
turn (or use Filter to do this for a whole stream).

A line of the form

	!name=value

defines a macro. The name must be one or more word characters (letters,
digits or underscore) and the value must start with a word character. The
line is consumed and produces no output. Later definitions of the same name
replace earlier ones.

Any other line is searched for macro references which are replaced by the
macro value. A reference is either '@name', which ends at the first
character that is not a word character, or '@{name}', which lets the
reference be followed directly by word characters. A doubled '@@' is
replaced by a single '@' so that a literal '@' can be written in front of a
word. References are replaced before the line is checked for a definition
so a definition can use the values of earlier macros.

A reference to a macro that has not been defined is an error and processing
should stop. If macro directories have been given they are searched for a
file with the same name as the macro (possibly with a suffix) before the
error is reported.
*/
package macros
