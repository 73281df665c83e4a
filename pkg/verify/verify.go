package verify

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/golang/glog"

	"github.com/go-resty/resty/v2"

	"github.com/codemk8/dynauth/pkg/schema"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Image  string `json:"image"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// Credentials posts email/password to the login endpoint, one shot,
// no retry. 200 maps the body to a User, 401 fails with the response
// body as detail, any other status is treated as no session.
func Credentials(apiURL string, email string, password string) (*schema.User, error) {
	requestJSON := loginRequest{
		Email:    email,
		Password: password,
	}
	requestBody, err := json.Marshal(requestJSON)
	if err != nil {
		glog.Warningf("error marshalling json %v", err)
		return nil, err
	}
	client := resty.New()
	request := client.R().SetHeader("Content-Type", "application/json").SetBody(requestBody)
	resp, err := request.Post(apiURL + "/login")
	if err != nil {
		glog.Warningf("error post to login endpoint %v", err)
		return nil, err
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		glog.Warningf("login rejected: %s", string(resp.Body()))
		return nil, errors.New(string(resp.Body()))
	}
	if resp.StatusCode() != http.StatusOK {
		glog.Warningf("login endpoint error code %s", strconv.Itoa(resp.StatusCode()))
		return nil, nil
	}
	var body loginResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		glog.Warningf("error unmarshalling login response %v", err)
		return nil, err
	}
	return &schema.User{
		ID:     body.ID,
		Name:   body.Name,
		Email:  body.Email,
		Image:  body.Image,
		Role:   body.Role,
		Status: body.Status,
	}, nil
}
