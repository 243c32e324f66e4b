package history

// Record length ambiguity.
//
// The source this log format was distilled from parses the on-disk
// operation record two different ways at two call sites: one reads an
// explicit op_length byte preceding the serialized command, the other
// recovers the command's length by subtracting the parent-digest
// prefix from the total record length. The two disagree whenever a
// record's bytes could be read either way, and nothing in the
// surrounding code resolves which is authoritative.
//
// This package implements length-by-subtraction: the only explicit
// length byte in a record is the parent digest's length (zero when a
// step has no parent); the command occupies every byte after that,
// recovered as len(record) - 1 - parentLen rather than read from its
// own prefix. An implementation reading records written by the other
// convention would need to reinterpret the first byte after the parent
// digest as a command-length prefix instead of trusting the remainder;
// this package does not attempt to auto-detect which convention a
// given store was written with.
