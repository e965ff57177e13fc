package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cardiovoice-backend/internal/services"

	"github.com/google/uuid"
)

var allowedAudioExtensions = map[string]bool{
	"wav": true, "mp3": true, "m4a": true, "ogg": true,
}

var allowedAudioMIMETypes = map[string]bool{
	"audio/wav": true, "audio/x-wav": true, "audio/wave": true,
	"audio/mpeg": true, "audio/mp3": true,
	"audio/mp4": true, "audio/m4a": true, "audio/x-m4a": true,
	"audio/ogg": true, "application/ogg": true,
}

// profileFromForm validates the profile fields the same way for every
// caller. Returns a field-specific message on failure.
func profileFromForm(form url.Values) (services.Profile, error) {
	age, err := strconv.Atoi(strings.TrimSpace(form.Get("age")))
	if err != nil || age < 18 || age > 100 {
		return services.Profile{}, fmt.Errorf("age must be between 18 and 100")
	}

	gender := form.Get("gender")
	if gender != "male" && gender != "female" {
		return services.Profile{}, fmt.Errorf("gender must be male or female")
	}

	smoking := form.Get("smoking_status")
	if smoking != "smoker" && smoking != "non-smoker" {
		return services.Profile{}, fmt.Errorf("smoking_status must be smoker or non-smoker")
	}

	activity := form.Get("activity_level")
	if activity != "sedentary" && activity != "moderate" && activity != "active" {
		return services.Profile{}, fmt.Errorf("activity_level must be sedentary, moderate or active")
	}

	return services.Profile{
		Age:           age,
		Gender:        gender,
		SmokingStatus: smoking,
		ActivityLevel: activity,
	}, nil
}

func allowedAudioFile(filename string) (ext string, ok bool) {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return "", false
	}
	ext = strings.ToLower(filename[i+1:])
	return ext, allowedAudioExtensions[ext]
}

// saveUploadSecurely validates extension, content type and size, then
// writes the upload under a random name so concurrent requests never
// collide. The caller owns cleanup of the returned path.
func saveUploadSecurely(file multipart.File, header *multipart.FileHeader, uploadDir string, maxBytes int64) (string, error) {
	ext, ok := allowedAudioFile(header.Filename)
	if !ok {
		return "", fmt.Errorf("file type not allowed, supported formats: wav, mp3, m4a, ogg")
	}

	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !allowedAudioMIMETypes[contentType] {
		return "", fmt.Errorf("invalid content type %q, must be an audio file", contentType)
	}

	if header.Size > maxBytes {
		return "", fmt.Errorf("file too large, maximum size is %dMB", maxBytes/(1024*1024))
	}

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(uploadDir, fmt.Sprintf("%s.%s", uuid.NewString(), ext))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	// Cap the copy as well: the header size is client-supplied.
	if _, err := io.Copy(dst, io.LimitReader(file, maxBytes+1)); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("save upload: %w", err)
	}
	if info, err := dst.Stat(); err == nil && info.Size() > maxBytes {
		os.Remove(path)
		return "", fmt.Errorf("file too large, maximum size is %dMB", maxBytes/(1024*1024))
	}

	return path, nil
}
