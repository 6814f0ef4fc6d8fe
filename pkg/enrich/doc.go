/*
Package enrich runs batches of independent secondary lookups with bounded
parallelism.

Use sites are the -PREFIXES fan-out (per announced prefix: AS name and
country) and the -ULTIMATEGEO handler (five geo sources in parallel). The
contract is RunAll: at most maxParallel tasks in flight, per-task timeouts,
an optional batch deadline that cancels in-flight I/O, results in submission
order, and panics converted to errors so one bad task never takes down a
response.
*/
package enrich
