// Package iso8583 is the card-network bank connector. It offers the same
// validation capability as the HTTP bank client, but speaks ISO 8583 over
// a persistent TCP connection.
package iso8583

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alovak/payment-gateway-playground/gateway/bank"
	moov8583 "github.com/moov-io/iso8583"
	connection "github.com/moov-io/iso8583-connection"
	"github.com/moov-io/iso8583/field"
	"github.com/moov-io/iso8583/network"
)

const (
	responseCodeApproved = "00"

	mtiAuthorizationRequest = "0100"
)

type Client struct {
	conn *connection.Connection
	stan uint32
}

// NewClient connects to the card network at addr. The returned client is
// safe for concurrent use; the underlying connection multiplexes requests.
func NewClient(addr string) (*Client, error) {
	conn, err := connection.New(
		addr,
		Spec,
		readMessageLength,
		writeMessageLength,
		connection.SendTimeout(10*time.Second),
		connection.IdleTime(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("creating card network connection: %w", err)
	}

	if err := conn.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to card network: %w", err)
	}

	return &Client{conn: conn}, nil
}

type authRequestData struct {
	MTI            *field.String `index:"0"`
	PAN            *field.String `index:"2"`
	ProcessingCode *field.String `index:"3"`
	Amount         *field.String `index:"4"`
	STAN           *field.String `index:"11"`
	ExpirationDate *field.String `index:"14"`
	CVV            *field.String `index:"47"`
	Currency       *field.String `index:"49"`
}

type authResponseData struct {
	AuthorizationCode *field.String `index:"38"`
	ResponseCode      *field.String `index:"39"`
}

// Validate sends a 0100 authorization request for the payment and maps the
// network response to the bank validation contract: response code 00 means
// authorized. A broken or closed connection maps to bank.ErrUnavailable.
func (c *Client) Validate(ctx context.Context, req bank.ValidationRequest) (bank.ValidationResponse, error) {
	if err := ctx.Err(); err != nil {
		return bank.ValidationResponse{}, err
	}

	expiry, err := expiryYYMM(req.ExpiryDate)
	if err != nil {
		return bank.ValidationResponse{}, fmt.Errorf("building authorization request: %w", err)
	}

	msg := moov8583.NewMessage(Spec)
	err = msg.Marshal(&authRequestData{
		MTI:            field.NewStringValue(mtiAuthorizationRequest),
		PAN:            field.NewStringValue(req.CardNumber),
		ProcessingCode: field.NewStringValue("000000"),
		Amount:         field.NewStringValue(fmt.Sprintf("%012d", req.Amount)),
		STAN:           field.NewStringValue(c.nextSTAN()),
		ExpirationDate: field.NewStringValue(expiry),
		CVV:            field.NewStringValue(req.CVV),
		Currency:       field.NewStringValue(req.Currency),
	})
	if err != nil {
		return bank.ValidationResponse{}, fmt.Errorf("building authorization request: %w", err)
	}

	response, err := c.conn.Send(msg)
	if err != nil {
		return bank.ValidationResponse{}, fmt.Errorf("sending authorization request: %w: %w", bank.ErrUnavailable, err)
	}

	data := &authResponseData{}
	if err := response.Unmarshal(data); err != nil {
		return bank.ValidationResponse{}, fmt.Errorf("unmarshaling authorization response: %w", err)
	}

	result := bank.ValidationResponse{
		Authorized: data.ResponseCode.Value() == responseCodeApproved,
	}
	if data.AuthorizationCode != nil {
		result.AuthorizationCode = data.AuthorizationCode.Value()
	}

	return result, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// nextSTAN returns the next systems trace audit number. The connection
// library uses it to match responses to in-flight requests.
func (c *Client) nextSTAN() string {
	return fmt.Sprintf("%06d", atomic.AddUint32(&c.stan, 1)%1_000_000)
}

// expiryYYMM converts the "M/YYYY" expiry used on the validation contract
// into the YYMM form of DE 14.
func expiryYYMM(expiryDate string) (string, error) {
	parts := strings.SplitN(expiryDate, "/", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("expiry date must be M/YYYY, got %q", expiryDate)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("parsing expiry month: %w", err)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("parsing expiry year: %w", err)
	}
	return fmt.Sprintf("%02d%02d", year%100, month), nil
}

func readMessageLength(r io.Reader) (int, error) {
	header := network.NewBinary2BytesHeader()
	n, err := header.ReadFrom(r)
	if err != nil {
		return n, err
	}

	return header.Length(), nil
}

func writeMessageLength(w io.Writer, length int) (int, error) {
	header := network.NewBinary2BytesHeader()
	header.SetLength(length)

	return header.WriteTo(w)
}
