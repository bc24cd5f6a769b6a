// Package composer turns a token sequence into an operator tree.
//
// A pipeline is a sequence of stages separated by "|" (or "--pipe"). Each
// stage is an operator name followed by its arguments. A sub-pipeline
// between "(" and ")" (or "--begin" and "--end") becomes an argument of the
// enclosing stage, typically the value of an input flag:
//
//	tr -f a.tsv | tj -2 ( tr -f b.tsv | ts -k 0 ) --k1 0 --k2 0
//
// Pipelines can also be kept in YAML files; LoadFile reads one and Tokens
// flattens it into the same grammar.
package composer
