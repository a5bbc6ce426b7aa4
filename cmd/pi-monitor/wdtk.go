package main

import (
	"pi_monitor_go/services"

	"github.com/spf13/cobra"
)

func newWdtkCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wdtk-counts <slug>",
		Short: "Rebuild yearly WhatDoTheyKnow request counts from info_request.csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ad, err := a.registry.Get(args[0])
			if err != nil {
				return err
			}
			_, err = services.GenerateWdtkCounts(ad, a.resources.Dir(args[0]), a.log)
			return err
		},
	}
}
