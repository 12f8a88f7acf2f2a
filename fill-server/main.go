// Package main implements the template fill server. It fetches DOCX templates
// from object storage (or a local directory), fills placeholder tokens with
// caller-supplied text and images, and either streams the result back or
// uploads it next to the templates.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ColtonShawProctor/template-filler/internal/storage"
)

const (
	// DefaultPort is the default port the server listens on.
	DefaultPort = 8080
	// DefaultTemplateKey is used when a fill request names no template.
	DefaultTemplateKey = "_Templates/IDS_Template_Fairbridge.docx"
)

func main() {
	port := flag.Int("port", DefaultPort, "Port to listen on")
	s3Endpoint := flag.String("s3-endpoint", "", "S3-compatible endpoint host (e.g. nyc3.digitaloceanspaces.com)")
	s3Region := flag.String("s3-region", "", "S3 region")
	s3Bucket := flag.String("s3-bucket", "", "S3 bucket holding templates and outputs")
	s3Insecure := flag.Bool("s3-insecure", false, "Use plain HTTP to the S3 endpoint (local dev)")
	templateDir := flag.String("template-dir", "", "Local directory store (used when no S3 endpoint is configured)")
	defaultTemplateKey := flag.String("default-template-key", "", "Template key used when a request names none")
	flag.Parse()

	// Environment variables fill in flags left empty, so the container image
	// can be configured without changing its command line.
	if *s3Endpoint == "" {
		*s3Endpoint = os.Getenv("TFILL_S3_ENDPOINT")
	}
	if *s3Region == "" {
		*s3Region = os.Getenv("TFILL_S3_REGION")
	}
	if *s3Bucket == "" {
		*s3Bucket = os.Getenv("TFILL_S3_BUCKET")
	}
	if *templateDir == "" {
		*templateDir = os.Getenv("TFILL_TEMPLATE_DIR")
	}
	if *defaultTemplateKey == "" {
		*defaultTemplateKey = os.Getenv("TFILL_DEFAULT_TEMPLATE_KEY")
	}
	if *defaultTemplateKey == "" {
		*defaultTemplateKey = DefaultTemplateKey
	}

	store, desc, err := buildStore(*s3Endpoint, *s3Region, *s3Bucket, *s3Insecure, *templateDir)
	if err != nil {
		log.Fatalf("Storage configuration error: %v", err)
	}

	server := NewServer(store, *defaultTemplateKey)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      server,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := httpServer.Close(); err != nil {
			log.Printf("Error closing server: %v", err)
		}
		close(done)
	}()

	log.Printf("Fill server starting on port %d", *port)
	log.Printf("Storage: %s", desc)
	log.Printf("Default template key: %s", *defaultTemplateKey)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	<-done
	log.Println("Server stopped")
}

// buildStore picks the S3 store when an endpoint and bucket are configured,
// falling back to the local directory store.
func buildStore(endpoint, region, bucket string, insecure bool, templateDir string) (storage.Store, string, error) {
	if endpoint != "" && bucket != "" {
		accessKey := os.Getenv("S3_ACCESS_KEY")
		secretKey := os.Getenv("S3_SECRET_KEY")

		if accessKey == "" || secretKey == "" {
			return nil, "", fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required for S3 storage")
		}

		store, err := storage.NewS3Store(storage.S3Config{
			Endpoint:  endpoint,
			Region:    region,
			Bucket:    bucket,
			AccessKey: accessKey,
			SecretKey: secretKey,
			Insecure:  insecure,
			// Bucket names with dots break virtual-host TLS, so always
			// address by path.
			PathStyle: strings.Contains(bucket, "."),
		})
		if err != nil {
			return nil, "", err
		}

		return store, fmt.Sprintf("s3 %s bucket %s", endpoint, bucket), nil
	}

	if templateDir != "" {
		store, err := storage.NewFSStore(templateDir)
		if err != nil {
			return nil, "", err
		}

		return store, "directory " + templateDir, nil
	}

	return nil, "", fmt.Errorf("no storage configured (set --s3-endpoint/--s3-bucket or --template-dir)")
}
