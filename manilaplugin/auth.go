// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"github.com/juju/errors"
	"github.com/juju/schema"
)

// authFieldNames lists the required authentication keys in the order
// they are reported when missing.
var authFieldNames = []string{
	"username",
	"password",
	"project_domain_id",
	"project_name",
	"user_domain_id",
	"auth_uri",
	"auth_url",
	"auth_type",
}

var authChecker = schema.FieldMap(schema.Fields{
	"username":          schema.String(),
	"password":          schema.String(),
	"project_domain_id": schema.String(),
	"project_name":      schema.String(),
	"user_domain_id":    schema.String(),
	"auth_uri":          schema.String(),
	"auth_url":          schema.String(),
	"auth_type":         schema.String(),
}, nil)

// AuthenticationData is the service user credential set the principal
// sends to each backend plugin, so the plugin can either talk to
// OpenStack itself or write the credentials into the configuration
// sections it generates.
type AuthenticationData struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ProjectDomainID string `json:"project_domain_id"`
	ProjectName     string `json:"project_name"`
	UserDomainID    string `json:"user_domain_id"`
	AuthURI         string `json:"auth_uri"`
	AuthURL         string `json:"auth_url"`
	AuthType        string `json:"auth_type"`
}

// fields returns the data as a key/value map in wire form.
func (a AuthenticationData) fields() map[string]string {
	return map[string]string{
		"username":          a.Username,
		"password":          a.Password,
		"project_domain_id": a.ProjectDomainID,
		"project_name":      a.ProjectName,
		"user_domain_id":    a.UserDomainID,
		"auth_uri":          a.AuthURI,
		"auth_url":          a.AuthURL,
		"auth_type":         a.AuthType,
	}
}

// authDataFromMap assembles AuthenticationData from a decoded payload.
// A required key that is absent or empty yields a MissingField error;
// a present key of the wrong type is a validation failure.
func authDataFromMap(m map[string]interface{}) (AuthenticationData, error) {
	var zero AuthenticationData
	for _, field := range authFieldNames {
		v, ok := m[field]
		if !ok {
			return zero, NewMissingFieldError(field)
		}
		if s, ok := v.(string); ok && s == "" {
			return zero, NewMissingFieldError(field)
		}
	}
	coerced, err := authChecker.Coerce(m, nil)
	if err != nil {
		return zero, errors.Annotate(err, "invalid authentication data")
	}
	fields := coerced.(map[string]interface{})
	str := func(key string) string {
		return fields[key].(string)
	}
	return AuthenticationData{
		Username:        str("username"),
		Password:        str("password"),
		ProjectDomainID: str("project_domain_id"),
		ProjectName:     str("project_name"),
		UserDomainID:    str("user_domain_id"),
		AuthURI:         str("auth_uri"),
		AuthURL:         str("auth_url"),
		AuthType:        str("auth_type"),
	}, nil
}
