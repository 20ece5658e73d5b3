package services

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

const signedURLTTL = 24 * time.Hour

// ImageSigner transforme la référence d'image stockée en URL servable.
type ImageSigner interface {
	SignedURL(ctx context.Context, image string) string
}

// MinIOSigner signe les clés d'objets du bucket produits. Les URL externes
// sont renvoyées telles quelles.
type MinIOSigner struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

func NewMinIOSigner(client *minio.Client, bucket string) *MinIOSigner {
	return &MinIOSigner{client: client, bucket: bucket, ttl: signedURLTTL}
}

func (s *MinIOSigner) SignedURL(ctx context.Context, image string) string {
	if s == nil || s.client == nil || image == "" {
		return image
	}
	key, ok := s.objectKey(image)
	if !ok {
		return image
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, make(url.Values))
	if err != nil {
		log.Printf("⚠️ Erreur URL signée %s: %v", key, err)
		return image
	}
	return presigned.String()
}

// objectKey retrouve la clé d'objet, y compris depuis une URL directe vers le bucket.
func (s *MinIOSigner) objectKey(image string) (string, bool) {
	if !strings.HasPrefix(image, "http://") && !strings.HasPrefix(image, "https://") {
		return strings.TrimPrefix(image, "/"), true
	}
	u, err := url.Parse(image)
	if err != nil || u.Host != s.client.EndpointURL().Host {
		return "", false
	}
	prefix := "/" + s.bucket + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	return strings.TrimPrefix(u.Path, prefix), true
}

// validImageRef accepte une URL http(s) ou une clé d'objet.
func validImageRef(image string) bool {
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		u, err := url.ParseRequestURI(image)
		return err == nil && u.Host != ""
	}
	return !strings.ContainsAny(image, " \t\n\\") && !strings.Contains(image, "..")
}
