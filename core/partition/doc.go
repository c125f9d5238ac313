// Package partition implements the normalization engine: it turns authored
// boundary markers into contiguous verse-id ranges, assigns every verse to
// exactly one partition per kind, and derives counts and parent links from
// that membership.
//
// Everything here is a pure function over explicit inputs. Nothing touches
// a database; the pipeline package turns the results into store mutations.
//
// Kinds and their relationships are described by the Specs table rather than
// per-kind code:
//
//	chapter  intrinsic (carried by each verse)
//	part     authored markers ("parts")
//	quarter  authored markers ("quarters")
//	group    GroupSize consecutive quarters
//	page     authored markers ("pages")
//
// A partition's parent is the parent of its first verse, where "first" means
// lowest global verse id. Links marked Strict additionally require every
// member verse to agree with the first one.
package partition
