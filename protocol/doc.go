package protocol

// This package implements serialising requests and parsing responses for
// the binary protocol that Keep uses to talk to its backup server.
//
// This protocol aims to be
//
// - trivial to frame and parse
// - byte-exact, no delimiters or escaping
// - cheap to stream large files through
//
// All integer fields are little-endian and fixed width.
//
// - `Request`  - A client instruction to the backup server.
// - `Response` - The server's single reply to a request.
//
// === Operations
//
// - `Backup`  (100) - upload a local file to the server
// - `Restore` (200) - fetch a previously backed up file
// - `Delete`  (201) - remove a file from the server
// - `List`    (202) - list every file stored for this user
//
// === Request framing
//
//   ```
//   u32 user_id | u8 version | u8 op_code | u16 name_len | ascii[name_len] filename
//   ```
//
// The filename is raw ASCII with no terminator; name_len is zero when the
// operation carries no filename (List). For Backup the header is followed
// by the file envelope:
//
//   ```
//   u32 file_size | bytes[file_size] file_content
//   ```
//
// The content is streamed in bounded chunks. Chunk boundaries carry no
// meaning on the wire; the receiver only sees file_size bytes.
//
// === Response framing
//
//   ```
//   u8 version | u16 status | u16 name_len | ascii[name_len] filename
//   ```
//
// Only when the status is one of the payload-bearing successes (210, 211)
// is the header followed by:
//
//   ```
//   u32 size | bytes[size] payload
//   ```
//
// Every other status, including ones this package does not know about,
// ends the response at the filename. Unknown statuses are deliberately
// not an error: the parser stays in sync because the fixed set above is
// the only thing that decides whether payload bytes follow.
//
// === Exchanges
//
// A client sends exactly one request and then reads exactly one response.
// Nothing is pipelined and the server never pushes unsolicited data, so
// message boundaries only ever depend on the fields themselves, never on
// transport read boundaries.
