package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanshika/graphlink/internal/decode"
	"github.com/vanshika/graphlink/internal/entity"
)

func runQuery(cmd *cobra.Command, args []string) error {
	pairs, _ := cmd.Flags().GetStringArray("param")
	profile, _ := cmd.Flags().GetBool("profile")
	params, err := parseParams(pairs)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	var (
		rs       *decode.ResultSet
		queryErr error
	)
	if err := s.await(func() error {
		return s.graph.Query(profile, args[0], params, func(res *decode.ResultSet, err error) {
			rs, queryErr = res, err
		})
	}); err != nil {
		return err
	}
	if queryErr != nil {
		return queryErr
	}
	return printJSON(cmd, rs)
}

func runNodeGet(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	var (
		node   *entity.Node
		getErr error
	)
	if err := s.await(func() error {
		return s.graph.GetNode(args[0], func(n *entity.Node, err error) { node, getErr = n, err })
	}); err != nil {
		return err
	}
	if getErr != nil {
		return getErr
	}
	return printJSON(cmd, node)
}

func runNodeCreate(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("data")
	data, err := parseObject("data", raw)
	if err != nil {
		return err
	}
	extra, err := parseParams(args)
	if err != nil {
		return err
	}
	if data == nil {
		data = map[string]any{}
	}
	for k, v := range extra {
		data[k] = v
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	var (
		node      *entity.Node
		createErr error
	)
	if err := s.await(func() error {
		return s.graph.CreateNode(data, func(n *entity.Node, err error) { node, createErr = n, err })
	}); err != nil {
		return err
	}
	if createErr != nil {
		return createErr
	}
	return printJSON(cmd, node)
}

func runNodeDelete(cmd *cobra.Command, args []string) error {
	return deleteEntities(cmd, args, "node")
}

func runRelGet(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	var (
		rel    *entity.Relationship
		getErr error
	)
	if err := s.await(func() error {
		return s.graph.GetRelationship(args[0], func(r *entity.Relationship, err error) { rel, getErr = r, err })
	}); err != nil {
		return err
	}
	if getErr != nil {
		return getErr
	}
	return printJSON(cmd, rel)
}

func runRelDelete(cmd *cobra.Command, args []string) error {
	return deleteEntities(cmd, args, "relationship")
}

func deleteEntities(cmd *cobra.Command, ids []string, kind string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	del := s.graph.DeleteNode
	if kind == "relationship" {
		del = s.graph.DeleteRelationship
	}

	var deleteErr error
	if err := s.await(func() error {
		return del(ids, func(err error) { deleteErr = err })
	}); err != nil {
		return err
	}
	if deleteErr != nil {
		return deleteErr
	}
	return printJSON(cmd, map[string]any{"deleted": ids, "kind": kind})
}

func indexKind(cmd *cobra.Command) (string, error) {
	kind, _ := cmd.Flags().GetString("kind")
	switch kind {
	case "node", "relationship":
		return kind, nil
	}
	return "", fmt.Errorf("--kind must be node or relationship, got %q", kind)
}

func runIndexList(cmd *cobra.Command, args []string) error {
	kind, err := indexKind(cmd)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	list := s.graph.ListNodeIndexes
	if kind == "relationship" {
		list = s.graph.ListRelationshipIndexes
	}

	var (
		indexes map[string]any
		listErr error
	)
	if err := s.await(func() error {
		return list(func(m map[string]any, err error) { indexes, listErr = m, err })
	}); err != nil {
		return err
	}
	if listErr != nil {
		return listErr
	}
	return printJSON(cmd, indexes)
}

func runIndexCreate(cmd *cobra.Command, args []string) error {
	kind, err := indexKind(cmd)
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetString("index-config")
	cfg, err := parseObject("index-config", raw)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	create := s.graph.CreateNodeIndex
	if kind == "relationship" {
		create = s.graph.CreateRelationshipIndex
	}

	var createErr error
	callback := func(err error) { createErr = err }
	if err := s.await(func() error {
		if cfg == nil {
			return create(args[0], callback)
		}
		return create(args[0], cfg, callback)
	}); err != nil {
		return err
	}
	if createErr != nil {
		return createErr
	}
	return printJSON(cmd, map[string]any{"created": args[0], "kind": kind})
}

func runIndexDelete(cmd *cobra.Command, args []string) error {
	kind, err := indexKind(cmd)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	del := s.graph.DeleteNodeIndex
	if kind == "relationship" {
		del = s.graph.DeleteRelationshipIndex
	}

	var deleteErr error
	if err := s.await(func() error {
		return del(args[0], func(err error) { deleteErr = err })
	}); err != nil {
		return err
	}
	if deleteErr != nil {
		return deleteErr
	}
	return printJSON(cmd, map[string]any{"deleted": args[0], "kind": kind})
}
