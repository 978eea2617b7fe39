package storage_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/keep/storage"
)

var _ = Describe("storage / InmemoryStore", func() {
	Describe("Close()", func() {
		It("does not panic when closed twice", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(func() { store.Close() }).NotTo(Panic())
			Expect(func() { store.Close() }).NotTo(Panic())
		})
	})

	Describe("Put() / Get()", func() {
		It("can read a file that was written", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Put(context.Background(), 7, "a.txt", []byte("hello"))).To(Succeed())
			Expect(store.Get(context.Background(), 7, "a.txt")).To(Equal([]byte("hello")))
		})

		It("keeps users separate", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Put(context.Background(), 7, "a.txt", []byte("hello"))).To(Succeed())

			_, err := store.Get(context.Background(), 8, "a.txt")
			Expect(errors.Is(err, storage.ErrNotFound)).To(BeTrue())
		})

		It("returns ErrNotFound for an unknown name", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			_, err := store.Get(context.Background(), 7, "missing.txt")
			Expect(errors.Is(err, storage.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("Delete()", func() {
		It("removes a stored file", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Put(context.Background(), 7, "a.txt", []byte("hello"))).To(Succeed())
			Expect(store.Delete(context.Background(), 7, "a.txt")).To(Succeed())

			_, err := store.Get(context.Background(), 7, "a.txt")
			Expect(errors.Is(err, storage.ErrNotFound)).To(BeTrue())
		})

		It("returns ErrNotFound when there is nothing to delete", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			err := store.Delete(context.Background(), 7, "missing.txt")
			Expect(errors.Is(err, storage.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("List()", func() {
		It("returns the user's filenames sorted", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Put(context.Background(), 7, "b.txt", []byte("b"))).To(Succeed())
			Expect(store.Put(context.Background(), 7, "a.txt", []byte("a"))).To(Succeed())
			Expect(store.Put(context.Background(), 8, "c.txt", []byte("c"))).To(Succeed())

			Expect(store.List(context.Background(), 7)).To(Equal([]string{"a.txt", "b.txt"}))
		})

		It("returns an empty list for an unknown user", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.List(context.Background(), 7)).To(HaveLen(0))
		})
	})

	Describe("Stats()", func() {
		It("counts users and files", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Put(context.Background(), 7, "a.txt", []byte("a"))).To(Succeed())
			Expect(store.Put(context.Background(), 7, "b.txt", []byte("b"))).To(Succeed())
			Expect(store.Put(context.Background(), 8, "c.txt", []byte("c"))).To(Succeed())

			Expect(store.Stats()).To(Equal(storage.Stats{Users: 2, Files: 3}))
		})
	})

	Describe("Backup() / Restore()", func() {
		It("an empty store snapshots to {}", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Backup()).To(Equal([]byte(`{}`)))
		})

		It("round-trips contents through a snapshot, dots in names included", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Put(context.Background(), 7, "a.txt", []byte("hello"))).To(Succeed())
			Expect(store.Put(context.Background(), 8, "b.bin", []byte{0x00, 0xFF})).To(Succeed())

			snapshot, err := store.Backup()
			Expect(err).To(Succeed())

			restored := storage.NewInmemoryStore()
			defer restored.Close()

			Expect(restored.Restore(snapshot)).To(Succeed())
			Expect(restored.Get(context.Background(), 7, "a.txt")).To(Equal([]byte("hello")))
			Expect(restored.Get(context.Background(), 8, "b.bin")).To(Equal([]byte{0x00, 0xFF}))
			Expect(restored.Stats()).To(Equal(store.Stats()))
		})
	})
})
