package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/lintang-b-s/regionroute/pkg/guidance"
	"github.com/lintang-b-s/regionroute/pkg/kv"
	"github.com/lintang-b-s/regionroute/pkg/logger"
	"github.com/lintang-b-s/regionroute/pkg/mapdata"
	"github.com/lintang-b-s/regionroute/pkg/roadgraph"
	"github.com/lintang-b-s/regionroute/pkg/router"
	"github.com/lintang-b-s/regionroute/pkg/server/rest"
	"github.com/lintang-b-s/regionroute/pkg/server/rest/service"
	"github.com/lintang-b-s/regionroute/pkg/snap"
	"github.com/lintang-b-s/regionroute/pkg/traffic"
	"github.com/lintang-b-s/regionroute/pkg/vehicle"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var (
	listenAddr = flag.String("listenaddr", ":5000", "server listen address")
	dataDir    = flag.String("datadir", "./regionroute-data", "directory holding registered region map data")
	kvDir      = flag.String("kvdir", "./regionroute-kv", "directory for the nearest-edge / traffic store")
	profile    = flag.String("vehicle", "car", "routing profile: car, bicycle or pedestrian")
)

func vehicleType(name string) vehicle.Type {
	switch name {
	case "bicycle":
		return vehicle.Bicycle
	case "pedestrian":
		return vehicle.Pedestrian
	default:
		return vehicle.Car
	}
}

func main() {
	flag.Parse()

	zlog, err := logger.New()
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	storage, err := mapdata.Open(*dataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer storage.Close()

	db, err := badger.Open(badger.DefaultOptions(*kvDir).WithLogger(nil))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	kvDB := kv.NewKVDB(db)
	defer kvDB.Close()

	trafficStore, err := traffic.NewStore(db)
	if err != nil {
		log.Fatal(err)
	}

	snapper := snap.NewRoadSnapper()
	regions, err := storage.Regions()
	if err != nil {
		log.Fatal(err)
	}
	for _, region := range regions {
		if err := indexRegion(storage, snapper, region); err != nil {
			log.Fatal(err)
		}
		zlog.Info("indexed region", zap.String("region", region))
	}

	models := vehicle.NewModelFactory(vehicleType(*profile))
	directions := guidance.NewDirectionsEngine()
	engine := router.NewSingleRegionRouter(router.NewStorageSource(storage),
		snapper, models, trafficStore, directions, zlog)

	navigationSvc := service.NewNavigationService(engine, kvDB, storage)

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	rest.NavigationRouter(r, navigationSvc, m)

	fmt.Printf("\nserver started at %s\n", *listenAddr)

	log.Fatal(http.ListenAndServe(*listenAddr, r))
}

// indexRegion loads a region's graph with every access class enabled and
// feeds its segments into the in-memory rtree.
func indexRegion(storage *mapdata.Storage, snapper *snap.RoadSnapper, region string) error {
	handle, err := storage.ResolveRegion(region)
	if err != nil {
		return err
	}
	defer handle.Close()

	section, err := handle.ReadSection(roadgraph.GraphSectionTag)
	if err != nil {
		return err
	}
	g, err := roadgraph.DeserializeGraph(section, vehicle.AllMask)
	if err != nil {
		return err
	}
	snapper.IndexGraph(region, g)
	return nil
}
