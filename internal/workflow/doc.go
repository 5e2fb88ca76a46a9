// Package workflow ties the cycle together: one run pulls from the
// sources, settles notification obligations, and regenerates the site,
// all against a single store handle. The daemon repeats cycles on a
// timer under a flock so only one instance writes at a time; the store's
// receipt constraint keeps overlapping runs consistent even without the
// lock.
package workflow
