package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/kelasi/backend/core/payment/gateway"
	"github.com/kelasi/backend/core/user"
	"github.com/kelasi/backend/storage/database/dummy"
	"github.com/kelasi/backend/tests"
)

var (
	usrRepo user.Repository
	gwRepo  gateway.ConfigRepository
)

func setup(t *testing.T) *commandLine {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	gwRepo = dummydb.NewGatewayConfigRepository(db)

	return &commandLine{
		usrRepo: usrRepo,
		gwRepo:  gwRepo,
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	extra   interface{}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "kip"}, wantErr: errHelp},
		{name: "create", args: []string{"adduser", "-username", "kip", "-email", "kip@test.cd"}, extra: extra{pwd: "lol"}},
		{name: "create admin", args: []string{"adduser", "-username", "boss", "-admin"}, extra: extra{pwd: "lol"}},
		{name: "update existing", args: []string{"adduser", "-username", "kip", "-admin"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	usr, err := usrRepo.GetUserByUsername(context.Background(), "kip")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if !usr.IsActive {
		t.Error("expected user to be active")
	}
	if !usr.IsAdmin() {
		t.Errorf("Roles = %v; want admin roles after update", usr.Roles)
	}
	if err = usr.CheckPassword("lmao"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed: %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_setGateway(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no provider", args: []string{"setgateway"}, wantErr: errHelp},
		{name: "unknown provider", args: []string{"setgateway", "-provider", "stripe"}, wantErr: errHelp},
		{name: "first use creates config", args: []string{"setgateway", "-provider", "paystack"}},
		{name: "switch provider", args: []string{"setgateway", "-provider", "flutterwave"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	conf, err := gwRepo.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig() failed: %v", err)
	}
	if conf.ActiveProvider != gateway.ProviderFlutterwave {
		t.Errorf("ActiveProvider = %v, want flutterwave", conf.ActiveProvider)
	}
	if conf.Currency != gateway.DefaultCurrency {
		t.Errorf("Currency = %v, want %v", conf.Currency, gateway.DefaultCurrency)
	}
}
