package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/lgdark7/timetable/internal/models"
	"github.com/lgdark7/timetable/internal/repository"
	"github.com/lgdark7/timetable/internal/service"
	"github.com/lgdark7/timetable/pkg/config"
	"github.com/lgdark7/timetable/pkg/database"
	"github.com/lgdark7/timetable/pkg/logger"
)

// issue-token signs an access token for an operator or a teacher account.
func main() {
	userID := flag.String("user", "", "account id placed in the token subject")
	role := flag.String("role", string(models.RoleAdmin), "ADMIN or TEACHER")
	teacherID := flag.String("teacher", "", "teacher id, required for TEACHER tokens")
	email := flag.String("email", "", "email claim")
	name := flag.String("name", "", "full name claim")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	var teachers *repository.TeacherRepository
	if models.UserRole(*role) == models.RoleTeacher {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close()
		teachers = repository.NewTeacherRepository(db)
	}

	auth := service.NewAuthService(teachers, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, err := auth.IssueToken(ctx, models.IssueTokenRequest{
		UserID:    *userID,
		Email:     *email,
		FullName:  *name,
		Role:      models.UserRole(*role),
		TeacherID: *teacherID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n# expires %s\n", token.AccessToken, token.ExpiresAt.Format(time.RFC3339))
}
