package connection

import (
	"context"
	"fmt"
	"log/slog"

	"taskboard/config"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
)

// FBConnection opens a Firestore client from the service account file or,
// failing that, from application default credentials and the project id.
func FBConnection(ctx context.Context, cfg *config.Config) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.FirestoreCredential != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirestoreCredential))
	}
	var fbConfig *firebase.Config
	if cfg.FirestoreProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.FirestoreProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %w", err)
	}

	slog.Info("firestore connection successful", "projectId", cfg.FirestoreProjectID)
	return client, nil
}
