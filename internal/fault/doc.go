// Package fault provides seeded, reproducible fault injection for exercising
// the ring's recovery paths: payload corruption (NACK and retry) and token
// loss (watchdog regeneration). A zero probability disables each injector.
package fault
