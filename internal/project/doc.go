// Package project writes the public read model: a data.json snapshot and
// an RSS feed of open comment periods, regenerated from the store at the
// end of every cycle. Projection is read-only over the store and safe to
// rerun at any time.
package project
