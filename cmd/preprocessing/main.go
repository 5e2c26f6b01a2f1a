package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"
	"sync"

	"github.com/lintang-b-s/regionroute/pkg/kv"
	"github.com/lintang-b-s/regionroute/pkg/mapdata"
	"github.com/lintang-b-s/regionroute/pkg/osmparser"
	"github.com/lintang-b-s/regionroute/pkg/roadgraph"

	"github.com/dgraph-io/badger/v4"
)

var (
	mapFile    = flag.String("f", "solo_jogja.osm.pbf", "openstreetmap pbf file for the region road network")
	regionName = flag.String("region", "solo_jogja", "name the region is registered under")
	dataDir    = flag.String("datadir", "./regionroute-data", "directory holding registered region map data")
	kvDir      = flag.String("kvdir", "./regionroute-kv", "directory for the nearest-edge / traffic store")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("reading osm file %s", *mapFile)
	parser := osmparser.NewOsmParser()
	parsed, err := parser.Parse(*mapFile)
	if err != nil {
		log.Fatal(err)
	}
	recordMemProfile(memprofile, "parsing_osm_data")

	g, err := roadgraph.NewGraph(parsed.Roads, parsed.Joints)
	if err != nil {
		log.Fatal(err)
	}
	g.ApplyRestrictions(parsed.Restrictions)

	graphSection, err := roadgraph.SerializeGraph(g)
	if err != nil {
		log.Fatal(err)
	}
	restrictionSection, err := roadgraph.SerializeRestrictions(parsed.Restrictions)
	if err != nil {
		log.Fatal(err)
	}

	storage, err := mapdata.Open(*dataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer storage.Close()

	err = storage.RegisterRegion(*regionName, map[string][]byte{
		roadgraph.GraphSectionTag:       graphSection,
		roadgraph.RestrictionSectionTag: restrictionSection,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("registered region %s (%d bytes graph section)", *regionName, len(graphSection))

	db, err := badger.Open(badger.DefaultOptions(*kvDir).WithLogger(nil))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	kvDB := kv.NewKVDB(db)
	defer kvDB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := kvDB.BuildH3IndexedEdges(ctx, *regionName, g); err != nil {
			log.Printf("error building h3 index: %v", err)
			panic(err)
		}
	}()
	wg.Wait()
	recordMemProfile(memprofile, "finish_indexing_edges")

	fmt.Printf("\nregion %s ready\n", *regionName)
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		*memprofile = strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
