// Package passstore gives programs structured access to a password store
// laid out the way pass(1) keeps one on disk: a directory tree of
// gpg-encrypted files, with per-directory recipient declarations in
// .gpg-id files.
//
// A [Store] is opened against a root directory, resolved from
// PASSWORD_STORE_DIR or defaulting to ~/.password-store:
//
//	store, err := passstore.Open(ctx)
//
// From there the store enumerates entries ([Store.List], [Store.Retrieve],
// [Store.Find]), resolves the recipients governing any path
// ([Store.Recipients]), and hands out scoped read and write handles on
// individual files ([Store.OpenRead], [Store.OpenWrite]). Handles decrypt
// lazily, cache plaintext for their lifetime, and write back atomically:
//
//	h, err := store.OpenWrite(ctx, "web/github")
//	if err != nil { ... }
//	defer h.Close()
//	if err := h.SetPlaintext(secret); err != nil { ... }
//	if err := h.Sync(ctx); err != nil { ... }
//
// Cryptography is delegated to a [crypto.Engine]; the default engine
// shells out to gpg, and [crypto.Keychain] serves environments without
// one. Optionally each store operation is journaled to a local audit
// ledger (PASSWORD_STORE_AUDIT_LOG), recording metadata only, never
// content.
package passstore
