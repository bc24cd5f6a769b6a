// Package operator turns operator names and argument tokens into
// configured pipeline stages and runs them.
//
// Every stage implements Operator. Stages are built by the factories of a
// Registry from pflag-parsed arguments, so configuration errors surface
// before any row is read. Opening a stage recursively opens its inputs: a
// file, standard input, or another stage. All run-wide state (the logger,
// table defaults, standard streams, metrics and the run id) lives on the
// Env passed to Open.
//
// Standard input is opened once per run. Two inputs that both read it get
// the same stream instance, which is how a join becomes a self-join.
package operator
