package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// GreetingName returns the "name" query parameter, falling back to a "name"
// field of a JSON body. Bodies that are not JSON objects are ignored.
func GreetingName(queryName string, body []byte) string {
	if name := strings.TrimSpace(queryName); name != "" {
		return name
	}
	var payload struct {
		Name any `json:"name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if s, ok := payload.Name.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func GreetingBody(name string) string {
	if name == "" {
		return "Kevin"
	}
	return "Hello, " + name + ". This HTTP triggered function executed successfully."
}

// Greeting is the GAdeemy demo endpoint. It always answers 200.
func Greeting(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		if b, err := base64.StdEncoding.DecodeString(req.Body); err == nil {
			body = b
		}
	}
	name := GreetingName(req.QueryStringParameters["name"], body)
	return textResp(http.StatusOK, GreetingBody(name)), nil
}
