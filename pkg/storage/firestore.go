package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/types"
)

const (
	residencesCollection   = "residences"
	integrationsCollection = "integrations"
	usersCollection        = "users"
)

// FirestoreProvider implements the Database interface using Google Cloud Firestore.
// Documents hold a JSON blob in the "json" field plus a "version" field.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

var _ Database = (*FirestoreProvider)(nil)

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// project ID can be inferred from the environment
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func residenceDocID(id int) string {
	return strconv.Itoa(id)
}

// decodeJSONField unmarshals the "json" field of doc into v.
func decodeJSONField(ctx context.Context, doc *firestore.DocumentSnapshot, v any) error {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "doc missing json", slog.String("path", doc.Ref.Path), slog.Any("err", err))
		return fmt.Errorf("document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "doc json not string", slog.String("path", doc.Ref.Path))
		return fmt.Errorf("document %s 'json' field is not a string", doc.Ref.ID)
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal doc json", slog.String("path", doc.Ref.Path), slog.Any("err", err))
		return fmt.Errorf("failed to unmarshal document %s: %w", doc.Ref.ID, err)
	}
	return nil
}

// docVersion reads the "version" field, defaulting to 0.
func docVersion(doc *firestore.DocumentSnapshot) int {
	if v, err := doc.DataAt("version"); err == nil {
		if vInt, ok := v.(int64); ok {
			return int(vInt)
		}
	}
	return 0
}

// ListResidences returns every residence ordered by ID.
func (f *FirestoreProvider) ListResidences(ctx context.Context) ([]types.Residence, error) {
	iter := f.client.Collection(residencesCollection).Documents(ctx)
	defer iter.Stop()

	residences := []types.Residence{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating residences: %w", err)
		}
		var r types.Residence
		if err := decodeJSONField(ctx, doc, &r); err != nil {
			return nil, err
		}
		residences = append(residences, r)
	}
	// document IDs sort lexicographically so order numerically here
	slices.SortFunc(residences, func(a, b types.Residence) int {
		return a.ID - b.ID
	})
	return residences, nil
}

// GetResidence fetches a single residence.
func (f *FirestoreProvider) GetResidence(ctx context.Context, id int) (types.Residence, error) {
	doc, err := f.client.Collection(residencesCollection).Doc(residenceDocID(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Residence{}, fmt.Errorf("%w: %d", ErrResidenceNotFound, id)
		}
		return types.Residence{}, fmt.Errorf("failed to fetch residence %d: %w", id, err)
	}
	var r types.Residence
	if err := decodeJSONField(ctx, doc, &r); err != nil {
		return types.Residence{}, err
	}
	return r, nil
}

// PutResidence creates or replaces a residence.
func (f *FirestoreProvider) PutResidence(ctx context.Context, residence types.Residence) error {
	if residence.ID <= 0 {
		return fmt.Errorf("invalid residence id: %d", residence.ID)
	}
	jsonBytes, err := json.Marshal(residence)
	if err != nil {
		return fmt.Errorf("failed to marshal residence: %w", err)
	}
	_, err = f.client.Collection(residencesCollection).Doc(residenceDocID(residence.ID)).Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"version": types.CurrentResidenceVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to save residence %d: %w", residence.ID, err)
	}
	return nil
}

// DeleteResidence removes a residence. Missing residences return ErrResidenceNotFound.
func (f *FirestoreProvider) DeleteResidence(ctx context.Context, id int) error {
	ref := f.client.Collection(residencesCollection).Doc(residenceDocID(id))
	_, err := ref.Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: %d", ErrResidenceNotFound, id)
		}
		return fmt.Errorf("failed to delete residence %d: %w", id, err)
	}
	return nil
}

// ListIntegrationStates returns the stored state of every integration.
// Sealed credentials live in their own "credentials" field so they never
// appear in the JSON blob.
func (f *FirestoreProvider) ListIntegrationStates(ctx context.Context) ([]types.IntegrationState, error) {
	iter := f.client.Collection(integrationsCollection).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var states []types.IntegrationState
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating integrations: %w", err)
		}
		var s types.IntegrationState
		if err := decodeJSONField(ctx, doc, &s); err != nil {
			return nil, err
		}
		if v, err := doc.DataAt("credentials"); err == nil {
			if b, ok := v.([]byte); ok {
				s.EncryptedCredentials = b
			}
		}
		states = append(states, s)
	}
	return states, nil
}

// PutIntegrationState creates or replaces the state of an integration.
func (f *FirestoreProvider) PutIntegrationState(ctx context.Context, state types.IntegrationState) error {
	if state.ID == "" {
		return fmt.Errorf("integration id cannot be empty")
	}
	jsonBytes, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal integration state: %w", err)
	}
	_, err = f.client.Collection(integrationsCollection).Doc(string(state.ID)).Set(ctx, map[string]interface{}{
		"json":        string(jsonBytes),
		"credentials": state.EncryptedCredentials,
	})
	if err != nil {
		return fmt.Errorf("failed to save integration %s: %w", state.ID, err)
	}
	return nil
}

func (f *FirestoreProvider) settingsDoc(userID string) (*firestore.DocumentRef, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	return f.client.Collection(usersCollection).Doc(userID).Collection("config").Doc("settings"), nil
}

// GetSettings retrieves the user's "config/settings" document.
func (f *FirestoreProvider) GetSettings(ctx context.Context, userID string) (types.Settings, int, error) {
	ref, err := f.settingsDoc(userID)
	if err != nil {
		return types.Settings{}, 0, err
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			// defaults are filled in by MigrateSettings
			return types.Settings{}, 0, nil
		}
		return types.Settings{}, 0, fmt.Errorf("failed to fetch settings doc: %w", err)
	}

	var s types.Settings
	if err := decodeJSONField(ctx, doc, &s); err != nil {
		return types.Settings{}, 0, err
	}
	return s, docVersion(doc), nil
}

// SetSettings saves the user's "config/settings" document.
func (f *FirestoreProvider) SetSettings(ctx context.Context, userID string, settings types.Settings, version int) error {
	ref, err := f.settingsDoc(userID)
	if err != nil {
		return err
	}
	jsonBytes, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = ref.Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"version": version,
	})
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
