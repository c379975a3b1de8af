package service

import (
	"strings"

	"go.uber.org/zap"
)

func equalUser(a, b string) bool { return strings.EqualFold(a, b) }

func logMember(member string) zap.Field { return zap.String("member", member) }
func logApplication(id int64) zap.Field { return zap.Int64("application_id", id) }
func logErr(err error) zap.Field { return zap.Error(err) }
