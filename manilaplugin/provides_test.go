// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin_test

import (
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/relationflags"
	corerelation "github.com/juju/relationflags/core/relation"
	"github.com/juju/relationflags/manilaplugin"
)

type ProviderSuite struct{}

var _ = gc.Suite(&ProviderSuite{})

func newTracker(c *gc.C, role corerelation.Role) *relationflags.Tracker {
	t, err := relationflags.NewTracker(relationflags.TrackerConfig{
		Endpoint: corerelation.Endpoint{
			Name:      "manila-plugin",
			Role:      role,
			Interface: "manila-plugin",
		},
	})
	c.Assert(err, jc.ErrorIsNil)
	return t
}

func (s *ProviderSuite) newProvider(c *gc.C) *manilaplugin.Provider {
	p, err := manilaplugin.NewProvider(newTracker(c, corerelation.Provider))
	c.Assert(err, jc.ErrorIsNil)
	return p
}

const fullAuthValue = `{"data":{` +
	`"username":"manila",` +
	`"password":"sekrit",` +
	`"project_domain_id":"default",` +
	`"project_name":"services",` +
	`"user_domain_id":"default",` +
	`"auth_uri":"http://keystone:5000/v3",` +
	`"auth_url":"http://keystone:35357/v3",` +
	`"auth_type":"password"}}`

func (s *ProviderSuite) TestNewProviderWrongRole(c *gc.C) {
	_, err := manilaplugin.NewProvider(newTracker(c, corerelation.Requirer))
	c.Assert(err, jc.Satisfies, errors.IsNotValid)
	_, err = manilaplugin.NewProvider(nil)
	c.Assert(err, jc.Satisfies, errors.IsNotValid)
}

func (s *ProviderSuite) TestSetName(c *gc.C) {
	p := s.newProvider(c)
	c.Assert(p.Name(), gc.Equals, "")
	c.Assert(p.SetName("generic"), jc.ErrorIsNil)
	c.Assert(p.Name(), gc.Equals, "generic")

	data, pending := p.Pending()
	c.Assert(pending, jc.IsTrue)
	c.Assert(data["_name"], gc.Equals, "generic")
}

func (s *ProviderSuite) TestSetNameInvalid(c *gc.C) {
	p := s.newProvider(c)
	c.Assert(p.SetName("Not A Name"), jc.Satisfies, errors.IsNotValid)
}

func (s *ProviderSuite) TestSetConfigurationData(c *gc.C) {
	p := s.newProvider(c)
	c.Assert(p.SetName("generic"), jc.ErrorIsNil)
	err := p.SetConfigurationData(manilaplugin.BackendConfiguration{
		Complete: true,
		Files: map[string]string{
			"/etc/manila/manila.conf": "[generic]\ndriver = fake\n",
		},
	})
	c.Assert(err, jc.ErrorIsNil)

	data, pending := p.Pending()
	c.Assert(pending, jc.IsTrue)
	// Name and configuration travel in the same publication.
	c.Assert(data["_name"], gc.Equals, "generic")
	c.Assert(data["_configuration_data"], jc.Contains, `"complete":true`)
	c.Assert(data["_configuration_data"], jc.Contains, "/etc/manila/manila.conf")
}

func (s *ProviderSuite) TestAuthenticationDataNotYetPublished(c *gc.C) {
	p := s.newProvider(c)

	// No principal at all.
	_, err := p.AuthenticationData()
	c.Assert(err, jc.Satisfies, manilaplugin.IsMissingField)

	// Principal joined but published nothing.
	c.Assert(p.PeerJoined("manila/0"), jc.ErrorIsNil)
	_, err = p.AuthenticationData()
	c.Assert(err, jc.Satisfies, manilaplugin.IsMissingField)
}

// TestAuthenticationDataAssembles walks the getter through partial
// publications until the composite is complete.
func (s *ProviderSuite) TestAuthenticationDataAssembles(c *gc.C) {
	p := s.newProvider(c)
	c.Assert(p.PeerJoined("manila/0"), jc.ErrorIsNil)

	err := p.PeerDataChanged("manila/0", relationflags.Settings{
		"_authentication_data": `{"data":{"username":"manila"}}`,
	})
	c.Assert(err, jc.ErrorIsNil)
	_, err = p.AuthenticationData()
	c.Assert(err, jc.Satisfies, manilaplugin.IsMissingField)
	c.Assert(err, gc.ErrorMatches, `missing field "password"`)

	err = p.PeerDataChanged("manila/0", relationflags.Settings{
		"_authentication_data": fullAuthValue,
	})
	c.Assert(err, jc.ErrorIsNil)
	auth, err := p.AuthenticationData()
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(auth, gc.DeepEquals, manilaplugin.AuthenticationData{
		Username:        "manila",
		Password:        "sekrit",
		ProjectDomainID: "default",
		ProjectName:     "services",
		UserDomainID:    "default",
		AuthURI:         "http://keystone:5000/v3",
		AuthURL:         "http://keystone:35357/v3",
		AuthType:        "password",
	})
}

func (s *ProviderSuite) TestAuthenticationDataEmptyField(c *gc.C) {
	p := s.newProvider(c)
	c.Assert(p.PeerJoined("manila/0"), jc.ErrorIsNil)
	err := p.PeerDataChanged("manila/0", relationflags.Settings{
		"_authentication_data": `{"data":{"username":"manila","password":""}}`,
	})
	c.Assert(err, jc.ErrorIsNil)
	_, err = p.AuthenticationData()
	c.Assert(err, jc.Satisfies, manilaplugin.IsMissingField)
	c.Assert(err, gc.ErrorMatches, `missing field "password"`)
}

func (s *ProviderSuite) TestAuthenticationDataBadPayload(c *gc.C) {
	p := s.newProvider(c)
	c.Assert(p.PeerJoined("manila/0"), jc.ErrorIsNil)
	err := p.PeerDataChanged("manila/0", relationflags.Settings{
		"_authentication_data": `not json`,
	})
	c.Assert(err, jc.ErrorIsNil)
	_, err = p.AuthenticationData()
	c.Assert(err, gc.ErrorMatches, "malformed envelope: .*")
	c.Assert(manilaplugin.IsMissingField(err), jc.IsFalse)
}
