/*
Package registry incrementally mirrors an RPSL registry working tree into
local storage.

The registry origin (git clone / rsync) is maintained by an external process;
this package only reads the resulting directory. Layout expected on disk:

	<registry>/data/<category>/<entry>

	data/aut-num/AS4242420000
	data/inetnum/172.20.0.0_14
	data/mntner/EXAMPLE-MNT

Each file becomes the store key "<category>/<entry>" with a {size, modified}
metadata sidecar used for change detection on the next sync. A sweep at the
end of every pass deletes keys whose backing file no longer exists, so the
store is always an exact mirror of the tree as of the walk.
*/
package registry
