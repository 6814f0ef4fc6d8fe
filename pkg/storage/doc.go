/*
Package storage provides bbolt-backed key→bytes persistence for whoisd's
cached datasets.

One store is opened per dataset (registry mirror, MANRS membership, IANA
enterprise numbers). bbolt memory-maps the backing file and gives MVCC-style
transactional reads: any number of readers see consistent snapshots while a
single writer commits per transaction, so handlers reading during a registry
sync observe the pre-update state.

# Key layout

	aut-num/AS4242420000          registry object content
	__meta__aut-num/AS4242420000  JSON {size, modified} sidecar

Metadata sidecars drive the registry loader's change detection and are
invisible to IteratePrefix. Content and sidecar are written and deleted in
one transaction, so "content without meta" is never observable after a
successful sync.

# Size budget

The backing file is budgeted at roughly 1 GiB. When exceeded, writes fail
with errkind.ErrStoreFull while reads continue to work.
*/
package storage
