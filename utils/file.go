package utils

import (
	"fmt"
	"io"
	"mime/multipart"
)

// MaxUploadBytes caps a single uploaded image.
const MaxUploadBytes = 8 << 20

// ReadUpload loads an uploaded multipart file into memory, refusing files over limit bytes.
func ReadUpload(fileHeader *multipart.FileHeader, limit int64) ([]byte, error) {
	if fileHeader.Size > limit {
		return nil, fmt.Errorf("file %s is %d bytes, limit is %d", fileHeader.Filename, fileHeader.Size, limit)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file %s exceeds %d bytes", fileHeader.Filename, limit)
	}
	return data, nil
}
