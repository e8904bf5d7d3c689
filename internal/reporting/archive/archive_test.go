package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	day := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024/03/report.pdf", Key(day, "report.pdf"))
}

func TestFileArchivePut(t *testing.T) {
	root := t.TempDir()
	archive, err := NewFileArchive(root)
	require.NoError(t, err)

	location, err := archive.Put(context.Background(), "2024/03/report.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2024", "03", "report.pdf"), location)
	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	_, err = archive.Put(context.Background(), "../escape.pdf", "application/pdf", nil)
	assert.Error(t, err)
}

type fakeS3 struct {
	failures int
	calls    int
	key      string
	body     []byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("slow down")
	}
	f.key = aws.ToString(in.Key)
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchiveRetries(t *testing.T) {
	client := &fakeS3{failures: 2}
	archive := NewS3ArchiveWithClient(client, "reports", "dstech")
	archive.backoff = time.Millisecond

	location, err := archive.Put(context.Background(), "2024/03/report.zip", "application/zip", []byte("zip"))
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/dstech/2024/03/report.zip", location)
	assert.Equal(t, 3, client.calls)
	assert.Equal(t, "dstech/2024/03/report.zip", client.key)
	assert.Equal(t, []byte("zip"), client.body)
}

func TestS3ArchiveGivesUp(t *testing.T) {
	client := &fakeS3{failures: 10}
	archive := NewS3ArchiveWithClient(client, "reports", "")
	archive.backoff = time.Millisecond

	_, err := archive.Put(context.Background(), "report.pdf", "application/pdf", nil)
	require.Error(t, err)
	assert.Equal(t, 4, client.calls)
}
