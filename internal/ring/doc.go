// Package ring models the static logical cycle of peers. Each node only needs
// its successor (the ring link); the full ring is used for configuration and
// to size the generator's token-loss watchdog.
package ring
