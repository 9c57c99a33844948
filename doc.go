/*

Assetman manages cloud-sourced game assets for a client process.  It
keeps a small persistent record of known asset files under a root
directory, and it fetches asset packages from an asset server with a
download loop built to survive stalled connections and to notice
promptly when nobody is waiting for the result anymore.

Vocabulary:

- rootdir: the directory an AssetManager owns; must exist before the
	manager is opened, and the manager never creates it
- state: the keyed record of per-file metadata persisted at
	<rootdir>/state, loaded when the manager opens and written when it
	closes
- codec: the encoding used for the state file; json text by default,
	msgpack optionally
- gather: one logical request to retrieve one or more asset packages,
	represented by a handle that observes the transfer but does not keep
	the manager alive
- flavor: which variant of a package to pull; passed through to the
	asset server unmodified

Ownership is strict: the state belongs to the manager and is only
touched from the manager's own calls, and each download owns its
output file for the duration of the transfer.  Closing the manager
cancels outstanding gathers; the download loop polls for cancellation
between chunks, so even a stalled transfer stops within one read
timeout.

*/

package assetman
