package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/stretchr/testify/assert"
)

func strAttr(s string) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{S: aws.String(s)}
}

func TestUnmarshalUserAbsent(t *testing.T) {
	user, err := unmarshalUser(nil)
	assert.Nil(t, err)
	assert.Nil(t, user, "absent record maps to nil, not an error")
}

func TestUnmarshalUser(t *testing.T) {
	raw := map[string]*dynamodb.AttributeValue{
		"pk":    strAttr("USER#a@b.com"),
		"sk":    strAttr("PROFILE#a@b.com"),
		"id":    strAttr("u1"),
		"email": strAttr("a@b.com"),
		"name":  strAttr("A"),
		"image": strAttr("http://img"),
	}
	user, err := unmarshalUser(raw)
	assert.Nil(t, err)
	assert.Equal(t, user.ID, "u1")
	assert.Equal(t, user.Email, "a@b.com")
	assert.Equal(t, user.Name, "A")
	assert.Equal(t, user.Image, "http://img")
	assert.Nil(t, user.EmailVerified, "missing emailVerified stays nil")

	raw["emailVerified"] = strAttr("2023-04-01T10:00:00Z")
	user, err = unmarshalUser(raw)
	assert.Nil(t, err)
	assert.NotNil(t, user.EmailVerified)
	assert.Equal(t, user.EmailVerified.UTC(), time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC))
}

func TestUnmarshalSession(t *testing.T) {
	session, err := unmarshalSession(nil)
	assert.Nil(t, err)
	assert.Nil(t, session)

	raw := map[string]*dynamodb.AttributeValue{
		"pk":           strAttr("SESSION#tok1"),
		"sk":           strAttr("USER#u1"),
		"sessionToken": strAttr("tok1"),
		"userId":       strAttr("u1"),
		"expires":      strAttr("2023-04-01T10:00:00Z"),
	}
	session, err = unmarshalSession(raw)
	assert.Nil(t, err)
	assert.Equal(t, session.SessionToken, "tok1")
	assert.Equal(t, session.UserID, "u1")
	assert.Equal(t, session.Expires.UTC(), time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC))
}

func TestUnmarshalSessionMalformedExpires(t *testing.T) {
	raw := map[string]*dynamodb.AttributeValue{
		"pk":           strAttr("SESSION#tok1"),
		"sk":           strAttr("USER#u1"),
		"sessionToken": strAttr("tok1"),
		"userId":       strAttr("u1"),
	}
	session, err := unmarshalSession(raw)
	assert.Nil(t, err)
	assert.NotNil(t, session, "a missing expires is not rejected up front")
	assert.Equal(t, session.Expires.IsZero(), true, "it fails at use instead")
}
