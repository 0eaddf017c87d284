package models

import "time"

// User представляет пользователя магазина
type User struct {
	ID         int64
	Name       string
	Lastname   string
	Email      string
	PassHash   []byte
	Direction  string // почтовый адрес доставки
	PostalCode string
	Saldo      int64 // баланс в минимальных единицах валюты, не бывает отрицательным
	IsAdmin    bool
	CreatedAt  time.Time
}
