package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeS3 struct {
	calls  []*s3.DeleteObjectsInput
	fail   map[string]string // key -> error code
	errFor func(call int) error
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.calls = append(f.calls, in)
	if f.errFor != nil {
		if err := f.errFor(len(f.calls)); err != nil {
			return nil, err
		}
	}
	out := &s3.DeleteObjectsOutput{}
	for _, obj := range in.Delete.Objects {
		key := aws.ToString(obj.Key)
		if code, ok := f.fail[key]; ok {
			out.Errors = append(out.Errors, types.Error{Key: aws.String(key), Code: aws.String(code), Message: aws.String("denied")})
			continue
		}
		out.Deleted = append(out.Deleted, types.DeletedObject{Key: aws.String(key)})
	}
	return out, nil
}

func TestS3StoreDeleteMany(t *testing.T) {
	t.Run("empty input makes no call", func(t *testing.T) {
		api := &fakeS3{}
		res := NewS3Store(api, "media", zap.NewNop()).DeleteMany(context.Background(), nil)
		assert.True(t, res.OK())
		assert.Zero(t, res.Deleted)
		assert.Empty(t, api.calls)
	})

	t.Run("all deleted", func(t *testing.T) {
		api := &fakeS3{}
		res := NewS3Store(api, "media", zap.NewNop()).DeleteMany(context.Background(), []string{"img_1", "img_2", "img_1"})
		assert.True(t, res.OK())
		assert.Equal(t, 2, res.Deleted)
		require.Len(t, api.calls, 1)
		assert.Equal(t, "media", aws.ToString(api.calls[0].Bucket))
		assert.Len(t, api.calls[0].Delete.Objects, 2)
	})

	t.Run("per key errors are reported", func(t *testing.T) {
		api := &fakeS3{fail: map[string]string{"img_2": "AccessDenied"}}
		res := NewS3Store(api, "media", zap.NewNop()).DeleteMany(context.Background(), []string{"img_1", "img_2"})
		assert.False(t, res.OK())
		assert.Equal(t, 1, res.Deleted)
		assert.Equal(t, []string{"img_2"}, res.Failed)
		assert.ErrorContains(t, res.Err, "AccessDenied")
	})

	t.Run("request error fails the whole batch", func(t *testing.T) {
		api := &fakeS3{errFor: func(int) error { return errors.New("timeout") }}
		res := NewS3Store(api, "media", zap.NewNop()).DeleteMany(context.Background(), []string{"a", "b"})
		assert.False(t, res.OK())
		assert.ElementsMatch(t, []string{"a", "b"}, res.Failed)
	})

	t.Run("large inputs are batched", func(t *testing.T) {
		refs := make([]string, 0, 2500)
		for i := 0; i < 2500; i++ {
			refs = append(refs, fmt.Sprintf("img_%d", i))
		}
		api := &fakeS3{errFor: func(call int) error {
			if call == 2 {
				return errors.New("throttled")
			}
			return nil
		}}
		res := NewS3Store(api, "media", zap.NewNop()).DeleteMany(context.Background(), refs)
		require.Len(t, api.calls, 3)
		assert.Equal(t, 1500, res.Deleted)
		assert.Len(t, res.Failed, 1000)
	})
}

func TestCloudinaryStoreDeleteMany(t *testing.T) {
	var gotIDs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": map[string]string{"message": "Invalid credentials"}})
			return
		}
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1_1/demo/resources/image/upload", r.URL.Path)
		gotIDs = r.URL.Query()["public_ids[]"]

		deleted := map[string]string{}
		for _, id := range gotIDs {
			switch id {
			case "gone":
				deleted[id] = "not_found"
			case "locked":
				deleted[id] = "error"
			default:
				deleted[id] = "deleted"
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"deleted": deleted, "partial": false})
	}))
	defer srv.Close()

	newStore := func(key string) *CloudinaryStore {
		c := NewCloudinaryStore("demo", key, "secret", zap.NewNop())
		c.baseURL = srv.URL
		c.client = srv.Client()
		return c
	}

	t.Run("deleted and not found both succeed", func(t *testing.T) {
		res := newStore("key").DeleteMany(context.Background(), []string{"img_1", "gone"})
		assert.True(t, res.OK())
		assert.Equal(t, 2, res.Deleted)
		assert.ElementsMatch(t, []string{"img_1", "gone"}, gotIDs)
	})

	t.Run("provider error status is a failure", func(t *testing.T) {
		res := newStore("key").DeleteMany(context.Background(), []string{"img_1", "locked"})
		assert.False(t, res.OK())
		assert.Equal(t, []string{"locked"}, res.Failed)
	})

	t.Run("http failure fails every id", func(t *testing.T) {
		res := newStore("wrong").DeleteMany(context.Background(), []string{"img_1", "img_2"})
		assert.False(t, res.OK())
		assert.ElementsMatch(t, []string{"img_1", "img_2"}, res.Failed)
		assert.ErrorContains(t, res.Err, "Invalid credentials")
	})
}

func TestChunk(t *testing.T) {
	assert.Nil(t, chunk(nil, 3))
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, chunk([]string{"a", "b", "c"}, 2))
}
