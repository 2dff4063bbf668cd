// Package dummydb is an in-memory implementation of the core repositories,
// used in tests and local development.
package dummydb

import (
	"strconv"
	"sync"

	"github.com/kelasi/backend/core/payment"
	"github.com/kelasi/backend/core/payment/gateway"
	"github.com/kelasi/backend/core/result"
	"github.com/kelasi/backend/core/school"
	"github.com/kelasi/backend/core/student"
	"github.com/kelasi/backend/core/user"
)

type (
	DB struct {
		user    *userTable
		student *studentTable
		payment *paymentTable
		result  *resultTable
		school  *schoolTable
		gateway *gatewayTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	paymentTable struct {
		sync.RWMutex
		table map[string]*payment.Payment
	}

	resultTable struct {
		sync.RWMutex
		table map[string]*result.Result
	}

	schoolTable struct {
		sync.RWMutex
		info *school.Info
	}

	gatewayTable struct {
		sync.RWMutex
		conf *gateway.Config
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		student: &studentTable{table: make(map[string]*student.Student)},
		payment: &paymentTable{table: make(map[string]*payment.Payment)},
		result:  &resultTable{table: make(map[string]*result.Result)},
		school:  &schoolTable{},
		gateway: &gatewayTable{},
	}
	return db, nil
}

var (
	pkMutex sync.Mutex
	pkCount int
)

func nextID() string {
	pkMutex.Lock()
	defer pkMutex.Unlock()
	pkCount++
	return strconv.Itoa(pkCount)
}
