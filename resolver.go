/*
Copyright 2025 Mosolo Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mosolo

import (
	"context"
	"fmt"
	"strings"

	"github.com/mosolohq/mosolo/internal/alert"
	"github.com/mosolohq/mosolo/internal/apierror"
	"github.com/mosolohq/mosolo/model"
	"github.com/sirupsen/logrus"
)

// normalizeIdentifier canonicalizes an identifier per method before lookup.
// Emails fold to lower case, card and account numbers lose their grouping
// separators, phone numbers pass through as stored.
func normalizeIdentifier(method model.TransferMethod, identifier string) string {
	identifier = strings.TrimSpace(identifier)
	switch method {
	case model.MethodEmail:
		return strings.ToLower(identifier)
	case model.MethodCard, model.MethodAccount:
		return strings.NewReplacer(" ", "", "-", "").Replace(identifier)
	default:
		return identifier
	}
}

// ResolveRecipient maps a transfer method plus identifier to exactly one
// account. Proximity methods carry the account id directly and skip lookup.
// Zero matches is NotFound. More than one match means an identifier
// uniqueness invariant has been violated upstream; that is reported as an
// internal fault, never resolved by picking a row.
func (m *Mosolo) ResolveRecipient(ctx context.Context, method model.TransferMethod, identifier, recipientID string) (*model.Account, error) {
	if method.Proximity() {
		if recipientID == "" {
			return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Recipient account id is required for proximity transfers", nil)
		}
		return m.datasource.GetAccountByID(ctx, recipientID)
	}

	identifier = normalizeIdentifier(method, identifier)
	if identifier == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("Recipient identifier is required for method '%s'", method), nil)
	}

	var (
		matches []model.Account
		err     error
	)
	switch method {
	case model.MethodCard:
		matches, err = m.datasource.FindAccountsByCardNumber(ctx, identifier)
	case model.MethodAccount:
		matches, err = m.datasource.FindAccountsByAccountNumber(ctx, identifier)
	case model.MethodEmail:
		matches, err = m.datasource.FindAccountsByEmail(ctx, identifier)
	case model.MethodPhone:
		matches, err = m.datasource.FindAccountsByPhone(ctx, identifier)
	default:
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("Unknown transfer method '%s'", method), nil)
	}
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "No account found for the given recipient", nil)
	case 1:
		account := matches[0]
		return &account, nil
	default:
		err := fmt.Errorf("identifier %q resolves to %d accounts via %s", identifier, len(matches), method)
		logrus.Error(err)
		alert.NotifyError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Recipient lookup returned multiple accounts", nil)
	}
}
