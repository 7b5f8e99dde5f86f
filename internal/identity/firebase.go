package identity

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

type FirebaseProvider struct {
	client    *auth.Client
	projectID string
}

func NewFirebaseProvider(ctx context.Context, projectID, credentialsJSON string) (*FirebaseProvider, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID must be set")
	}

	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firebase auth client: %w", err)
	}

	return &FirebaseProvider{client: client, projectID: projectID}, nil
}

func (p *FirebaseProvider) VerifyToken(ctx context.Context, idToken string) (*Identity, error) {
	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if token.Audience != p.projectID {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}

	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: email not found in token", ErrInvalidToken)
	}
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)

	return &Identity{UID: token.UID, Email: email, Name: name, Picture: picture}, nil
}

func (p *FirebaseProvider) DeleteAccount(ctx context.Context, email string) error {
	record, err := p.client.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to look up firebase user: %w", err)
	}
	return p.client.DeleteUser(ctx, record.UID)
}
