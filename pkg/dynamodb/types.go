package dynamo

import (
	"time"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/golang/glog"

	"github.com/codemk8/dynauth/pkg/schema"
)

// Single-table layout: every entity shares one table, distinguished
// by the pk/sk pair. Timestamps are stored as RFC3339 strings.

// userItem is a profile record, keyed by email on the primary key and
// by id on GSI1.
type userItem struct {
	PK            string `dynamodbav:"pk"`
	SK            string `dynamodbav:"sk"`
	ID            string `dynamodbav:"id"`
	Email         string `dynamodbav:"email"`
	EmailVerified string `dynamodbav:"emailVerified,omitempty"`
	Name          string `dynamodbav:"name,omitempty"`
	Image         string `dynamodbav:"image,omitempty"`
	CreatedAt     string `dynamodbav:"createdAt,omitempty"`
	UpdatedAt     string `dynamodbav:"updatedAt,omitempty"`
}

// accountItem is a provider link, keyed by (providerAccountId, provider)
// on GSI2. userEmail carries the second hop of GetUserByAccount.
type accountItem struct {
	PK                string `dynamodbav:"pk"`
	SK                string `dynamodbav:"sk"`
	UserID            string `dynamodbav:"userId"`
	UserEmail         string `dynamodbav:"userEmail,omitempty"`
	Provider          string `dynamodbav:"provider"`
	ProviderAccountID string `dynamodbav:"providerAccountId"`
	AccessToken       string `dynamodbav:"access_token,omitempty"`
	RefreshToken      string `dynamodbav:"refresh_token,omitempty"`
	TokenType         string `dynamodbav:"token_type,omitempty"`
	Scope             string `dynamodbav:"scope,omitempty"`
	ExpiresAt         int64  `dynamodbav:"expires_at,omitempty"`
	CreatedAt         string `dynamodbav:"createdAt,omitempty"`
}

type sessionItem struct {
	PK           string `dynamodbav:"pk"`
	SK           string `dynamodbav:"sk"`
	SessionToken string `dynamodbav:"sessionToken"`
	UserID       string `dynamodbav:"userId"`
	Expires      string `dynamodbav:"expires"`
	CreatedAt    string `dynamodbav:"createdAt,omitempty"`
	UpdatedAt    string `dynamodbav:"updatedAt,omitempty"`
}

func userPK(email string) string    { return "USER#" + email }
func profileSK(email string) string { return "PROFILE#" + email }
func accountSK(provider string) string {
	return "ACCOUNT#" + provider
}
func sessionPK(token string) string { return "SESSION#" + token }

// unmarshalUser maps a raw record to a User. An absent record maps to
// nil, not an error. A missing emailVerified stays nil.
func unmarshalUser(raw map[string]*dynamodb.AttributeValue) (*schema.User, error) {
	if raw == nil {
		return nil, nil
	}
	item := userItem{}
	if err := dynamodbattribute.UnmarshalMap(raw, &item); err != nil {
		glog.Warningf("failed to unmarshal user record: %v", err)
		return nil, err
	}
	user := &schema.User{
		ID:    item.ID,
		Email: item.Email,
		Name:  item.Name,
		Image: item.Image,
	}
	if item.EmailVerified != "" {
		if ts, err := time.Parse(time.RFC3339, item.EmailVerified); err == nil {
			user.EmailVerified = &ts
		}
	}
	return user, nil
}

// unmarshalSession maps a raw record to a Session with the same nil
// propagation. A stored session without expires yields the zero time
// and fails at use, it is not rejected here.
func unmarshalSession(raw map[string]*dynamodb.AttributeValue) (*schema.Session, error) {
	if raw == nil {
		return nil, nil
	}
	item := sessionItem{}
	if err := dynamodbattribute.UnmarshalMap(raw, &item); err != nil {
		glog.Warningf("failed to unmarshal session record: %v", err)
		return nil, err
	}
	expires, _ := time.Parse(time.RFC3339, item.Expires)
	return &schema.Session{
		SessionToken: item.SessionToken,
		UserID:       item.UserID,
		Expires:      expires,
	}, nil
}

func unmarshalAccount(raw map[string]*dynamodb.AttributeValue) (*accountItem, error) {
	if raw == nil {
		return nil, nil
	}
	item := accountItem{}
	if err := dynamodbattribute.UnmarshalMap(raw, &item); err != nil {
		glog.Warningf("failed to unmarshal account record: %v", err)
		return nil, err
	}
	return &item, nil
}
