package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreImplementationBaseTests checks behaviour every FileStorage implementation must share.
func StoreImplementationBaseTests(t *testing.T, fs FileStorage) {
	ctx := context.Background()
	// unique label so reruns against remote stores don't see old objects
	label := fmt.Sprintf("conformance-%s", t.Name())

	tests := []struct {
		name  string
		id    string
		input []byte
	}{
		{"event", "0c9f0e7a-1111-4c3b-a2d4-5e6f7a8b9c0d.json", []byte(`{"event_id":"0c9f","key":"A","event_type":"view","timestamp":1}`)},
		{"batch", "batch_00000001700000000000000000_ab12cd34.json", []byte(`{"batch_id":"b","created":1,"entries":[{"key":"A","count":2}]}`)},
		{"empty", "empty.json", []byte{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			exists, err := fs.Exists(ctx, label, test.id)
			assert.NoError(err, "No error was returned when checking existence of non-existent object")
			assert.False(exists, "Exists check did not return False for a non-existent object")

			_, err = fs.Fetch(ctx, label, test.id)
			var notFound *NotFoundError
			assert.ErrorAs(err, &notFound, "Did not get a NotFound error for non-existent object")

			didDelete, err := fs.Delete(ctx, label, test.id)
			assert.ErrorAs(err, &notFound, "Did not get a NotFound error when deleting a non-existent object")
			assert.False(didDelete, "Delete did not return False for non-existent object")

			err = fs.Put(ctx, label, test.id, test.input)
			require.NoError(err, "Error occurred while saving object")

			exists, err = fs.Exists(ctx, label, test.id)
			assert.NoError(err, "Got error when checking for object")
			assert.True(exists, "Object exists check did not return true")

			data, err := fs.Fetch(ctx, label, test.id)
			assert.NoError(err, "Error occurred fetching object")
			assert.Equal(len(test.input), len(data), "Fetched object has a different size")
			if len(test.input) > 0 {
				assert.Equal(test.input, data, "Fetched object has different content")
			}

			ids, err := fs.List(ctx, label)
			assert.NoError(err, "Error listing label")
			assert.Equal([]string{test.id}, ids, "Listing did not return exactly the stored object")

			// overwrite replaces content
			replaced := append([]byte(nil), test.input...)
			replaced = append(replaced, ' ')
			err = fs.Put(ctx, label, test.id, replaced)
			assert.NoError(err, "Error occurred while replacing object")
			data, err = fs.Fetch(ctx, label, test.id)
			assert.NoError(err)
			assert.Equal(replaced, data, "Replaced object not returned")

			didDelete, err = fs.Delete(ctx, label, test.id)
			assert.NoError(err, "Error deleting object")
			assert.True(didDelete, "Delete did not return true")

			exists, err = fs.Exists(ctx, label, test.id)
			assert.NoError(err)
			assert.False(exists, "Object still exists after delete")
		})
	}

	// listing is sorted and scoped to the label
	for _, id := range []string{"c.json", "a.json", "b.json"} {
		require.NoError(t, fs.Put(ctx, label, id, []byte(`{}`)))
	}
	require.NoError(t, fs.Put(ctx, label+"-other", "z.json", []byte(`{}`)))
	ids, err := fs.List(ctx, label)
	require.NoError(t, err)
	require.Equal(t, []string{"a.json", "b.json", "c.json"}, ids)

	ids, err = fs.List(ctx, label+"-missing")
	require.NoError(t, err)
	require.Empty(t, ids)

	for _, id := range []string{"a.json", "b.json", "c.json"} {
		_, err = fs.Delete(ctx, label, id)
		require.NoError(t, err)
	}
	_, err = fs.Delete(ctx, label+"-other", "z.json")
	require.NoError(t, err)
}
