package dynamo

import (
	"errors"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/golang/glog"

	"github.com/codemk8/dynauth/pkg/adapter"
	"github.com/codemk8/dynauth/pkg/schema"
)

const (
	idIndex      = "GSI1"
	accountIndex = "GSI2"
)

// ErrUserNotFound is returned by UpdateUser when no record matches
// the incoming id. Read paths never return it, absence is a nil user.
var ErrUserNotFound = errors.New("user not found")

// Config carries everything the client needs so no process-wide state
// is involved.
type Config struct {
	Table  string
	Region string
}

type DynamoClient struct {
	table string
	svc   dynamodbiface.DynamoDBAPI
}

var _ adapter.Adapter = (*DynamoClient)(nil)

// NewClient starts a new client against the real service and probes
// the table so a bad name or credentials fail at startup.
func NewClient(cfg Config) (*DynamoClient, error) {
	awscfg := &aws.Config{}
	awscfg.WithRegion(cfg.Region)
	sess := session.Must(session.NewSession(awscfg))
	svc := dynamodb.New(sess)

	params := &dynamodb.ScanInput{
		TableName: aws.String(cfg.Table),
		Limit:     aws.Int64(1), // limit for quick return
	}
	if _, err := svc.Scan(params); err != nil {
		glog.Warningf("Error db scanning: %v.", err)
		return nil, err
	}
	return &DynamoClient{table: cfg.Table, svc: svc}, nil
}

// NewClientWithAPI wires an explicit service implementation, used to
// substitute a test double.
func NewClientWithAPI(cfg Config, svc dynamodbiface.DynamoDBAPI) *DynamoClient {
	return &DynamoClient{table: cfg.Table, svc: svc}
}

// queryFirst runs a key-condition query and returns the first raw
// item, or nil when nothing matched.
func (client *DynamoClient) queryFirst(index *string, keyCond string, values map[string]*dynamodb.AttributeValue) (map[string]*dynamodb.AttributeValue, error) {
	result, err := client.svc.Query(&dynamodb.QueryInput{
		TableName:                 aws.String(client.table),
		IndexName:                 index,
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		glog.Warningf("Error db query: %v.", err)
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, nil
	}
	return result.Items[0], nil
}

func (client *DynamoClient) putItem(item interface{}) error {
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		glog.Warningf("Failed to marshal record, %v", err)
		return err
	}
	_, err = client.svc.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(client.table),
		Item:      av,
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			glog.Warningf("dynamodb put item error type %s: %v", aerr.Code(), aerr)
		} else {
			glog.Warningf("Error Put item in db: %v.", err)
		}
		return err
	}
	return nil
}

// CreateUser writes a full profile record keyed by email and returns
// the user with its generated id. There is no uniqueness check, a
// second create with the same email overwrites the first.
func (client *DynamoClient) CreateUser(user schema.User) (*schema.User, error) {
	newUser := schema.NewUser(user)
	now := time.Now().UTC().Format(time.RFC3339)
	item := userItem{
		PK:        userPK(newUser.Email),
		SK:        profileSK(newUser.Email),
		ID:        newUser.ID,
		Email:     newUser.Email,
		Name:      newUser.Name,
		Image:     newUser.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if newUser.EmailVerified != nil {
		item.EmailVerified = newUser.EmailVerified.UTC().Format(time.RFC3339)
	}
	if err := client.putItem(item); err != nil {
		return nil, err
	}
	return newUser, nil
}

// GetUser resolves a user through the id index. At most one match is
// expected, none is enforced.
func (client *DynamoClient) GetUser(id string) (*schema.User, error) {
	raw, err := client.queryFirst(aws.String(idIndex), "id = :id",
		map[string]*dynamodb.AttributeValue{
			":id": {S: aws.String(id)},
		})
	if err != nil {
		return nil, err
	}
	return unmarshalUser(raw)
}

func (client *DynamoClient) GetUserByEmail(email string) (*schema.User, error) {
	raw, err := client.queryFirst(nil, "pk = :pk",
		map[string]*dynamodb.AttributeValue{
			":pk": {S: aws.String(userPK(email))},
		})
	if err != nil {
		return nil, err
	}
	return unmarshalUser(raw)
}

// GetUserByAccount is a two-step lookup: the provider index yields the
// link record, whose userEmail resolves the profile. The two reads are
// not atomic; the index read may observe stale data.
func (client *DynamoClient) GetUserByAccount(provider string, providerAccountID string) (*schema.User, error) {
	raw, err := client.queryFirst(aws.String(accountIndex), "providerAccountId = :paid AND provider = :p",
		map[string]*dynamodb.AttributeValue{
			":paid": {S: aws.String(providerAccountID)},
			":p":    {S: aws.String(provider)},
		})
	if err != nil {
		return nil, err
	}
	link, err := unmarshalAccount(raw)
	if err != nil || link == nil {
		return nil, err
	}
	return client.GetUserByEmail(link.UserEmail)
}

// UpdateUser merges the partial user over the stored record and
// rewrites the full profile. Fields left empty on the partial keep
// their stored values.
func (client *DynamoClient) UpdateUser(user schema.User) (*schema.User, error) {
	existing, err := client.GetUser(user.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrUserNotFound
	}

	merged := schema.User{
		ID:            user.ID,
		Email:         existing.Email,
		EmailVerified: existing.EmailVerified,
		Name:          existing.Name,
		Image:         existing.Image,
	}
	if user.Email != "" {
		merged.Email = user.Email
	}
	if user.EmailVerified != nil {
		merged.EmailVerified = user.EmailVerified
	}
	if user.Name != "" {
		merged.Name = user.Name
	}
	if user.Image != "" {
		merged.Image = user.Image
	}

	item := userItem{
		PK:        userPK(merged.Email),
		SK:        profileSK(merged.Email),
		ID:        merged.ID,
		Email:     merged.Email,
		Name:      merged.Name,
		Image:     merged.Image,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if merged.EmailVerified != nil {
		item.EmailVerified = merged.EmailVerified.UTC().Format(time.RFC3339)
	}
	if err := client.putItem(item); err != nil {
		return nil, err
	}
	return &merged, nil
}

// LinkAccount writes the link record under the owning user's
// partition. No existence check on the user, a re-link of the same
// provider overwrites silently.
func (client *DynamoClient) LinkAccount(account schema.Account) error {
	item := accountItem{
		PK:                userPK(account.UserID),
		SK:                accountSK(account.Provider),
		UserID:            account.UserID,
		UserEmail:         account.UserEmail,
		Provider:          account.Provider,
		ProviderAccountID: account.ProviderAccountID,
		AccessToken:       account.AccessToken,
		RefreshToken:      account.RefreshToken,
		TokenType:         account.TokenType,
		Scope:             account.Scope,
		ExpiresAt:         account.ExpiresAt,
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
	}
	return client.putItem(item)
}

// CreateSession stores the session keyed by its token. The user is
// not checked to exist.
func (client *DynamoClient) CreateSession(session schema.Session) (*schema.Session, error) {
	item := sessionItem{
		PK:           sessionPK(session.SessionToken),
		SK:           userPK(session.UserID),
		SessionToken: session.SessionToken,
		UserID:       session.UserID,
		Expires:      session.Expires.UTC().Format(time.RFC3339),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := client.putItem(item); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessionAndUser resolves the session by primary key, then its
// user through the id index. Nil unless both legs resolve.
func (client *DynamoClient) GetSessionAndUser(sessionToken string) (*schema.SessionUser, error) {
	raw, err := client.queryFirst(nil, "pk = :pk",
		map[string]*dynamodb.AttributeValue{
			":pk": {S: aws.String(sessionPK(sessionToken))},
		})
	if err != nil {
		return nil, err
	}
	session, err := unmarshalSession(raw)
	if err != nil || session == nil {
		return nil, err
	}
	user, err := client.GetUser(session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return &schema.SessionUser{Session: session, User: user}, nil
}

// UpdateSession is a full overwrite of the session record, there is
// no merge with stored fields.
func (client *DynamoClient) UpdateSession(session schema.Session) (*schema.Session, error) {
	item := sessionItem{
		PK:           sessionPK(session.SessionToken),
		SK:           userPK(session.UserID),
		SessionToken: session.SessionToken,
		UserID:       session.UserID,
		Expires:      session.Expires.UTC().Format(time.RFC3339),
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := client.putItem(item); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession looks the record up by its token to recover the full
// primary key, then deletes it. Deleting an absent token is a no-op.
func (client *DynamoClient) DeleteSession(sessionToken string) error {
	raw, err := client.queryFirst(nil, "pk = :pk",
		map[string]*dynamodb.AttributeValue{
			":pk": {S: aws.String(sessionPK(sessionToken))},
		})
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	_, err = client.svc.DeleteItem(&dynamodb.DeleteItemInput{
		TableName: aws.String(client.table),
		Key: map[string]*dynamodb.AttributeValue{
			"pk": raw["pk"],
			"sk": raw["sk"],
		},
	})
	if err != nil {
		glog.Warningf("Error deleting item: %v.", err)
		return err
	}
	return nil
}
