package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

const profileUsage = `usage: chiliquality profile [flags] <list | get NAME | put NAME FILE | default [NAME]>`

func runProfile(ctx context.Context, logger *logrus.Logger, args []string) error {
	var c common
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	c.register(fs, "store.db")
	fs.Parse(args)

	if err := c.apply(logger); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New(profileUsage)
	}

	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch {
	case rest[0] == "list":
		names, err := s.ListProfiles()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}

	case rest[0] == "get" && len(rest) == 2:
		config, err := s.Profile(rest[1])
		if err != nil {
			return err
		}
		return enc.Encode(config)

	case rest[0] == "put" && len(rest) == 3:
		config, err := readConfigFile(rest[2])
		if err != nil {
			return err
		}
		if err := s.PutProfile(rest[1], config); err != nil {
			return err
		}
		logger.WithField("profile", rest[1]).Info("stored profile")

	case rest[0] == "default" && len(rest) == 1:
		name, err := s.DefaultProfile()
		if err != nil {
			return err
		}
		fmt.Println(name)

	case rest[0] == "default" && len(rest) == 2:
		if err := s.PutDefaultProfile(rest[1]); err != nil {
			return err
		}
		logger.WithField("profile", rest[1]).Info("set default profile")

	default:
		return errors.New(profileUsage)
	}

	return nil
}
