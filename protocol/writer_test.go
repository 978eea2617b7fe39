package protocol_test

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/keep/protocol"
)

var _ = Describe("Parsing / Writer", func() {
	Describe("EncodeHeader", func() {
		It("lays the fields out little-endian with an unterminated filename", func() {
			b, err := protocol.EncodeHeader(0x01020304, 1, protocol.OpBackup, "a.txt")
			Expect(err).To(Succeed())
			Expect(b).To(Equal([]byte{
				0x04, 0x03, 0x02, 0x01, // user id
				0x01,       // version
				0x64,       // op code 100
				0x05, 0x00, // name length
				0x61, 0x2E, 0x74, 0x78, 0x74, // "a.txt"
			}))
		})

		It("encodes an absent filename as a zero length field", func() {
			b, err := protocol.EncodeHeader(7, 1, protocol.OpList, "")
			Expect(err).To(Succeed())
			Expect(b).To(HaveLen(8))
			Expect(b[6]).To(Equal(byte(0)))
			Expect(b[7]).To(Equal(byte(0)))
		})

		It("produces a header of exactly 8+len bytes for the longest legal filename", func() {
			name := strings.Repeat("a", 65535)
			b, err := protocol.EncodeHeader(7, 1, protocol.OpRestore, name)
			Expect(err).To(Succeed())
			Expect(b).To(HaveLen(8 + 65535))
		})

		It("rejects a filename longer than the length field can carry", func() {
			_, err := protocol.EncodeHeader(7, 1, protocol.OpRestore, strings.Repeat("a", 65536))
			Expect(errors.Is(err, protocol.ErrFilenameTooLong)).To(BeTrue())
		})

		It("rejects a filename that is not ASCII", func() {
			_, err := protocol.EncodeHeader(7, 1, protocol.OpRestore, "fïle.txt")
			Expect(errors.Is(err, protocol.ErrFilenameNotASCII)).To(BeTrue())
		})
	})

	Describe("WriteRequest", func() {
		It("writes nothing at all when encoding fails", func() {
			w := bytes.NewBuffer([]byte{})

			err := protocol.WriteRequest(w, 7, 1, protocol.OpRestore, "fïle.txt")
			Expect(errors.Is(err, protocol.ErrFilenameNotASCII)).To(BeTrue())
			Expect(w.Len()).To(Equal(0))
		})

		It("round-trips through ReadRequest", func() {
			w := bytes.NewBuffer([]byte{})

			Expect(protocol.WriteRequest(w, 0xDEADBEEF, 1, protocol.OpDelete, "notes.txt")).To(Succeed())

			req, err := protocol.ReadRequest(w)
			Expect(err).To(Succeed())
			Expect(req.GetUserID()).To(Equal(uint32(0xDEADBEEF)))
			Expect(req.GetVersion()).To(Equal(byte(1)))
			Expect(req.GetOpCode()).To(Equal(protocol.OpDelete))
			Expect(req.GetFilename()).To(Equal("notes.txt"))
		})
	})

	Describe("WriteBackup", func() {
		It("emits the header, the 4 byte size, then the raw content", func() {
			w := bytes.NewBuffer([]byte{})
			body := bytes.NewReader([]byte("hello"))

			Expect(protocol.WriteBackup(w, 0x01020304, 1, "a.txt", 5, body)).To(Succeed())
			Expect(w.Bytes()).To(Equal([]byte{
				0x04, 0x03, 0x02, 0x01, 0x01, 0x64, 0x05, 0x00,
				0x61, 0x2E, 0x74, 0x78, 0x74,
				0x05, 0x00, 0x00, 0x00,
				'h', 'e', 'l', 'l', 'o',
			}))
		})

		It("streams bodies larger than a single chunk intact", func() {
			content := bytes.Repeat([]byte{0xAB}, protocol.ChunkSize*2+17)
			w := bytes.NewBuffer([]byte{})

			err := protocol.WriteBackup(w, 7, 1, "big.bin", uint32(len(content)), bytes.NewReader(content))
			Expect(err).To(Succeed())

			req, err := protocol.ReadRequest(w)
			Expect(err).To(Succeed())

			backup, ok := req.(*protocol.BackupRequest)
			Expect(ok).To(BeTrue())
			Expect(backup.Size).To(Equal(uint32(len(content))))
			Expect(backup.Payload).To(Equal(content))
		})

		It("writes nothing when the filename fails validation", func() {
			w := bytes.NewBuffer([]byte{})

			err := protocol.WriteBackup(w, 7, 1, "fïle", 5, bytes.NewReader([]byte("hello")))
			Expect(errors.Is(err, protocol.ErrFilenameNotASCII)).To(BeTrue())
			Expect(w.Len()).To(Equal(0))
		})
	})

	Describe("WriteStatus", func() {
		It("emits no payload fields", func() {
			w := bytes.NewBuffer([]byte{})

			Expect(protocol.WriteStatus(w, 1, protocol.StatusErrFileNotFound, "")).To(Succeed())
			Expect(w.Bytes()).To(Equal([]byte{0x01, 0xE9, 0x03, 0x00, 0x00}))
		})
	})

	Describe("WritePayload", func() {
		It("round-trips through ReadResponse", func() {
			w := bytes.NewBuffer([]byte{})

			Expect(protocol.WritePayload(w, 1, protocol.StatusFileList, "", []byte("a.txt\nb.txt"))).To(Succeed())

			resp, err := protocol.ReadResponse(w)
			Expect(err).To(Succeed())
			Expect(resp.Status).To(Equal(protocol.StatusFileList))
			Expect(resp.Size).To(Equal(uint32(11)))
			Expect(resp.Payload).To(Equal([]byte("a.txt\nb.txt")))
		})

		It("still emits the size field for an empty payload", func() {
			w := bytes.NewBuffer([]byte{})

			Expect(protocol.WritePayload(w, 1, protocol.StatusFileList, "", []byte{})).To(Succeed())
			Expect(w.Bytes()).To(Equal([]byte{0x01, 0xD3, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}))

			resp, err := protocol.ReadResponse(bytes.NewReader(w.Bytes()))
			Expect(err).To(Succeed())
			Expect(resp.HasPayload()).To(BeTrue())
			Expect(resp.Payload).To(HaveLen(0))
		})
	})
})
