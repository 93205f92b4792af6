package dose

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultMaxFileSize caps a single archived file.
const DefaultMaxFileSize int64 = 5 << 20

// FileInput is one selected file. Type may be empty, in which case it is
// detected from the name and content.
type FileInput struct {
	Name string
	Type string
	Open func() (io.ReadCloser, error)
}

// ArchiveFiles reads every input concurrently and stores each one that
// decodes. A failing file never prevents the others from being stored; its
// error is returned joined with the rest.
func (s *ReminderService) ArchiveFiles(ctx context.Context, inputs []FileInput) ([]ArchivedFile, error) {
	type result struct {
		file ArchivedFile
		err  error
	}
	results := make([]result, len(inputs))

	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := s.encodeFile(ctx, in)
			results[i] = result{file: f, err: err}
		}()
	}
	wg.Wait()

	var stored []ArchivedFile
	var errs []error
	for i, r := range results {
		if r.err != nil {
			s.logger.Warn("archiving file failed", "name", inputs[i].Name, "error", r.err)
			errs = append(errs, fmt.Errorf("archiving %s: %w", inputs[i].Name, r.err))
			continue
		}
		s.records.AddArchivedFile(r.file)
		stored = append(stored, r.file)
		s.logger.Info("file archived", "id", r.file.ID, "type", r.file.Type)
	}
	return stored, errors.Join(errs...)
}

func (s *ReminderService) encodeFile(ctx context.Context, in FileInput) (ArchivedFile, error) {
	name := strings.TrimSpace(filepath.Base(in.Name))
	if name == "" || name == "." {
		return ArchivedFile{}, invalidf("file name is required")
	}
	if in.Open == nil {
		return ArchivedFile{}, invalidf("file %s has no content", name)
	}
	if err := ctx.Err(); err != nil {
		return ArchivedFile{}, err
	}

	rc, err := in.Open()
	if err != nil {
		return ArchivedFile{}, fmt.Errorf("opening file: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, s.maxFileSize+1))
	if err != nil {
		return ArchivedFile{}, fmt.Errorf("reading file: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return ArchivedFile{}, invalidf("file %s exceeds %d bytes", name, s.maxFileSize)
	}

	mimeType := detectMIMEType(name, in.Type, data)
	return ArchivedFile{
		ID:   s.idgen.New(),
		Name: name,
		Type: mimeType,
		Data: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

func detectMIMEType(name, declared string, data []byte) string {
	if declared != "" {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}
