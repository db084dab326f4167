// Package services contains stateless domain services: logic that needs more
// than one aggregate or a secret/tariff configuration and therefore does not
// belong on an entity.
package services
