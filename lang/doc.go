// Package lang implements DioScript, a small embeddable expression language
// whose result is a declarative element tree: nodes with a tag, ordered
// attributes and ordered children. The host registers native functions,
// evaluates a script, and renders the returned tree however it likes.
//
// # Grammar
//
// Informal EBNF:
//
//	Script     → Statement* EOF
//	Statement  → ( 'return' Expr? | Expr ) ';'?
//	Block      → '{' Statement* '}'
//	Expr       → '@' Ident '=' Expr | Binary
//	Binary     → Unary ( BinOp Unary )*
//	Unary      → ( '!' | '-' ) Unary | Postfix
//	Postfix    → Primary ( '[' Expr ']' | '.' Ident Args? )*
//	Args       → '(' ( Expr ( ',' Expr )* ','? )? ')'
//	Primary    → Number | String | 'true' | 'false' | 'none' | '@' Ident
//	           | '(' Expr ')' | List | Map | Element | Call | FuncRef
//	           | If | For | While
//	List       → '[' ( Expr ( ',' Expr )* ','? )? ']'
//	Map        → '{' ( Key ':' Expr ( ',' Key ':' Expr )* ','? )? '}'
//	Element    → Ident '{' ( ( Key ':' Expr | Expr ) ','? )* '}'
//	Call       → ( Ident '::' )? Ident Args
//	FuncRef    → Ident '::' Ident
//	If         → 'if' Expr Block ( 'else' ( If | Block ) )?
//	For        → 'for' '@' Ident 'in' Expr Block
//	While      → 'while' Expr Block
//	Key        → Ident | String
//
// Binary operators, loosest first: || then && then == != then
// < > <= >= then + - then * / %. The ';' after a statement may be omitted
// when the statement ends with a block or is the last one in its block.
// Comments are // and # to end of line, and /* ... */.
//
// # Example
//
//	@items = ["alpha", "beta"];
//	return ul {
//	    class: "menu",
//	    for @item in @items {
//	        return li { string::upper(@item) }
//	    },
//	    if len(@items) == 0 { return li { "empty" } }
//	};
//
// # Scoping
//
// Variables are written @name. Assigning a name that some enclosing scope
// already binds updates that binding; otherwise the name is declared in the
// current scope. Every block (if branch, loop body) opens a scope that is
// discarded when the block exits.
//
// # Collecting contexts
//
// Element children and list items are collecting contexts. An if, for or
// while written there contributes the values its blocks return: one per
// returning loop iteration, one for a returning if branch, and nothing for
// an if whose condition selects no branch. Conditions must be bool.
//
// # Host functions
//
// Functions are grouped in modules and registered with an exact arity (or
// [Variadic]) on a [Registry] owned by one [Runtime]. Scripts call them as
// module::name(args); unqualified calls resolve in [RootModule]. A method
// call v.name(args) calls name in the module named after the kind of v,
// with v as the first argument, so [1, 2].reverse() is
// list::reverse([1, 2]). Arguments are evaluated before the function is
// resolved, and the arity is checked before it runs.
//
// Elements expose the fields name, attributes and content (aliases tag,
// attrs and children): p { "x" }.content is ["x"].
//
// # Limits
//
// Evaluation aborts with [ErrRuntimeLimit] when nesting (blocks plus host
// calls) exceeds [WithMaxDepth] or the total number of loop iterations
// exceeds [WithMaxIterations].
package lang
