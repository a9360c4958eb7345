// Package binary retrieves a prebuilt LLVM archive and extracts the
// requested tool binaries from it.
//
// # Security Model
//
// Unless verification is explicitly disabled, the archive is checked
// before a single entry is extracted:
//   - OpenPGP signatures (.sig) are checked against the signer's public
//     key, looked up by key ID on a VKS key server or read from a local
//     keyring
//   - SHA256 checksum files (.sha256) are compared against the archive
//     digest when no signature is published
//
// Verification needs the whole archive, so it is only available in the
// tempfile and ramfile modes. Requesting it in stream mode is a
// configuration error.
//
// # Extraction
//
// Archives may be xz, gzip, zstd or lz4 compressed tarballs; the format
// is detected from the leading magic bytes. Requested paths are matched
// relative to the archive's top level directory and written flattened
// into the output directory. Files are written to temporaries first and
// only renamed into place once every requested path was found.
//
// # Architecture
//
//   - Retriever: download, verify, extract and permission fixup
//   - Downloader: HTTP GET with optional progress bar
//   - Verifier: OpenPGP and SHA256 verification
//   - KeyServer, Keyring: signing key lookup
//   - Extractor: decompression and selective tar extraction
package binary
