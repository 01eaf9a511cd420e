// Package locale provides the French and English message tables and demo
// catalogs, and negotiates which one to use with golang.org/x/text/language.
//
// French is the wording the diagnosis backend and its advice tables use;
// English is the default for everything else.
package locale
