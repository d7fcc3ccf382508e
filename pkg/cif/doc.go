// Package cif provides a streaming reader for mmCIF text files and their
// BinaryCIF (MessagePack) equivalent.
//
// The reader knows nothing about the meaning of categories or keywords.
// Callers register the categories and keywords they care about and receive
// callbacks as values are read:
//
//	src := cif.NewSource(cif.NewReaderFiller(f), cif.SourceOptions{})
//	r := cif.NewReader(src, cif.FormatText)
//	entry := r.AddCategory("_entry", cif.Callbacks{
//		Data: func(r *cif.Reader) error {
//			id, _ := entryID.Value()
//			fmt.Println("entry", id)
//			return nil
//		},
//	})
//	entryID = entry.AddKeyword("id")
//	for more := true; more; {
//		if more, err = r.Read(); err != nil {
//			return err
//		}
//	}
//
// Each call to Read processes exactly one data block. Categories or keywords
// that were not registered are reported through the unknown-category and
// unknown-keyword handlers, if set, so callers can choose a strict or a
// permissive policy.
//
// Keyword values are only valid for the duration of the callback that
// observes them; copy them (Value does) if they need to outlive it.
package cif
