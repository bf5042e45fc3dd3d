// Package world is the actor arena the rule engine reads from and the
// built-in effects write to.
//
// Actors and factions are stored by stable ID. Every relation (transport,
// parasite, host, mind controller, bunker, owner) is an ID lookup that
// returns (ID, bool), so mutually referencing actors never hold pointers to
// each other. The engine consumes the World interface only; Arena is the
// in-memory implementation used by the CLI, the harness and tests.
package world
