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

package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mosolohq/mosolo/model"
	"github.com/shopspring/decimal"
)

// SendMoney is the wire shape of a transfer. Amount is a major-unit decimal
// string; it is converted to minor units of the stated currency before the
// core sees it.
type SendMoney struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Method      string `json:"method"`
	Identifier  string `json:"identifier,omitempty"`
	RecipientID string `json:"recipient_id,omitempty"`
	Description string `json:"description,omitempty"`
}

func (s *SendMoney) identifierOrRecipientValidation() validation.RuleFunc {
	return func(value interface{}) error {
		method, err := model.ParseTransferMethod(s.Method)
		if err != nil {
			return nil // reported by the Method field rule
		}
		if method.Proximity() {
			if s.RecipientID == "" {
				return errors.New("recipient_id is required for proximity methods")
			}
			return nil
		}
		if s.Identifier == "" {
			return errors.New("identifier is required for this method")
		}
		return nil
	}
}

func (s *SendMoney) ValidateSendMoney() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Amount, validation.Required, is.Float),
		validation.Field(&s.Currency, validation.Required, validation.Length(3, 3)),
		validation.Field(&s.Method, validation.Required, validation.By(func(interface{}) error {
			_, err := model.ParseTransferMethod(s.Method)
			return err
		})),
		validation.Field(&s.Identifier, validation.By(s.identifierOrRecipientValidation())),
	)
}

// ToTransfer converts the DTO into the core's input type, translating the
// decimal amount into minor units.
func (s *SendMoney) ToTransfer(senderID string) (*model.NewTransfer, error) {
	amount, err := decimal.NewFromString(s.Amount)
	if err != nil {
		return nil, errors.New("amount must be a decimal number")
	}
	method, err := model.ParseTransferMethod(s.Method)
	if err != nil {
		return nil, err
	}
	return &model.NewTransfer{
		SenderID:    senderID,
		Amount:      model.ToMinorUnits(amount, s.Currency),
		Currency:    s.Currency,
		Method:      method,
		Identifier:  s.Identifier,
		RecipientID: s.RecipientID,
		Description: s.Description,
	}, nil
}

// CreateMoneyRequest is the wire shape of a payment request.
type CreateMoneyRequest struct {
	ToAccountID string `json:"to_account_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
}

func (r *CreateMoneyRequest) ValidateCreateMoneyRequest() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ToAccountID, validation.Required),
		validation.Field(&r.Amount, validation.Required, is.Float),
		validation.Field(&r.Currency, validation.Required, validation.Length(3, 3)),
	)
}

// MinorAmount converts the decimal amount string into minor units.
func (r *CreateMoneyRequest) MinorAmount() (int64, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return 0, errors.New("amount must be a decimal number")
	}
	return model.ToMinorUnits(amount, r.Currency), nil
}

// RespondMoneyRequest is the wire shape of a request response. Accept is a
// pointer so a missing field fails validation instead of defaulting to reject.
type RespondMoneyRequest struct {
	Accept *bool  `json:"accept"`
	Reason string `json:"reason,omitempty"`
}

func (r *RespondMoneyRequest) ValidateRespondMoneyRequest() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Accept, validation.NotNil),
	)
}
