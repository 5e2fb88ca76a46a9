// Package textutil provides small text cleanup helpers shared by
// normalization and post rendering.
package textutil
