package highlight

// Keywords are the Structured Text reserved words marked in listings:
// elementary types, declaration sections and control flow. Matching is
// case-sensitive and whole-word.
var Keywords = []string{
	"__UXINT", "__XINT", "__XWORD", "BIT", "BOOL", "BYTE", "DATE", "DATE_AND_TIME",
	"DINT", "DT", "DWORD", "INT", "LDATE", "LDATE_AND_TIME", "LDT", "LINT",
	"LREAL", "LTIME", "LTOD", "LWORD", "REAL", "SINT", "STRING", "TIME",
	"TOD", "TIME_OF_DAY", "UDINT", "UINT", "ULINT", "USINT", "WORD", "WSTRING",
	"FUNCTION_BLOCK", "PROGRAM", "IMPLEMENTS", "INTERFACE", "VAR", "END_VAR", "EXTENDS",
	"PROPERTY", "TYPE", "END_TYPE", "STRUCT", "END_STRUCT", "POINTER", "TO", "DO",
	"FOR", "END_FOR", "END_IF", "IF", "AND", "AND_THEN", "OR_ELSE", "ELSE", "WHILE",
	"REPEAT", "UNTIL", "CASE", "OF", "ADR", "XOR", "VAR_INPUT", "VAR_OUTPUT", "PERSISTENT",
	"RETAIN", "AT", "ARRAY", "METHOD", "THIS^", "NOT", "THEN", "ELSIF",
	"REFERENCE", "REF=", "PUBLIC", "PRIVATE", "CONSTANT", "VAR_GLOBAL",
}
