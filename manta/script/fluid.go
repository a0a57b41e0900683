package script

// Fragments shared by both script flavors: imports, solver setup, the
// grids every simulation carries, and the standalone driver loop.

const fluidHeader = `
import os
import math

`

const fluidVariables = `
mantaMsg('Fluid variables')
dim_s$ID$     = 3
res_s$ID$     = $RES_MAX$
gravity_s$ID$ = vec3($GRAVITY_X$, $GRAVITY_Y$, $GRAVITY_Z$)
gs_s$ID$      = vec3($RES_X$, $RES_Y$, $RES_Z$)

doOpen_s$ID$          = $DO_OPEN$
boundConditions_s$ID$ = '$BOUND_CONDITIONS$'
boundaryWidth_s$ID$   = $BOUNDARY_WIDTH$

dt0_s$ID$      = $DT$
cfl_cond_s$ID$ = $CFL$

using_guiding_s$ID$  = $USING_GUIDING$
using_obstacle_s$ID$ = $USING_OBSTACLE$
using_invel_s$ID$    = $USING_INVEL$

cache_dir         = r'$CACHE_DIR$'
cache_frame_start = $CACHE_FRAME_START$
cache_frame_end   = $CACHE_FRAME_END$
file_format_data  = '.uni'
file_format_noise = '.uni'
`

const fluidSolver = `
mantaMsg('Solver base')
s$ID$ = Solver(name='solver_base_s$ID$', gridSize=gs_s$ID$)
s$ID$.frameLength = dt0_s$ID$
s$ID$.cfl = cfl_cond_s$ID$
`

const fluidSolverNoise = `
mantaMsg('Solver noise')
upres_sn$ID$ = $NOISE_UPRES$
gs_sn$ID$    = vec3($RES_X$*upres_sn$ID$, $RES_Y$*upres_sn$ID$, $RES_Z$*upres_sn$ID$)
sn$ID$ = Solver(name='solver_noise_s$ID$', gridSize=gs_sn$ID$)
`

const fluidAlloc = `
mantaMsg('Fluid alloc')
flags_s$ID$    = s$ID$.create(FlagGrid)
vel_s$ID$      = s$ID$.create(MACGrid)
pressure_s$ID$ = s$ID$.create(RealGrid)
forces_s$ID$   = s$ID$.create(Vec3Grid)
phiObs_s$ID$   = s$ID$.create(LevelsetGrid)
phiObsIn_s$ID$ = s$ID$.create(LevelsetGrid)
phiOut_s$ID$   = s$ID$.create(LevelsetGrid)
phiOutIn_s$ID$ = s$ID$.create(LevelsetGrid)
obvel_s$ID$    = s$ID$.create(MACGrid)
obvelC_s$ID$   = s$ID$.create(Vec3Grid)
invel_s$ID$    = s$ID$.create(Vec3Grid)

fluid_data_dict_s$ID$ = dict(vel=vel_s$ID$)
`

const fluidAllocGuiding = `
mantaMsg('Fluid alloc guiding')
velT_s$ID$        = s$ID$.create(MACGrid)
weightGuide_s$ID$ = s$ID$.create(RealGrid)
beta_sg$ID$       = 2
tau_sg$ID$        = 1.0
sigma_sg$ID$      = 0.99/tau_sg$ID$
theta_sg$ID$      = 1.0

fluid_guiding_dict_s$ID$ = dict(guidevel=velT_s$ID$)
`

const fluidPrePostStep = `
def fluid_pre_step_$ID$():
    mantaMsg('Fluid pre step')
    phiObs_s$ID$.setConst(9999)
    phiOut_s$ID$.setConst(9999)
    if using_obstacle_s$ID$:
        obvel_s$ID$.setConst(vec3(0))

def fluid_post_step_$ID$():
    mantaMsg('Fluid post step')
    forces_s$ID$.clear()
    if using_guiding_s$ID$:
        weightGuide_s$ID$.clear()
    if using_invel_s$ID$:
        invel_s$ID$.clear()
`

const fluidAdaptTimeStepNoise = `
def fluid_adapt_time_step_noise_$ID$():
    mantaMsg('Fluid adapt time step noise')
    maxVel_sn$ID$ = vel_sn$ID$.getMax()
    sn$ID$.adaptTimestep(maxVel_sn$ID$)
`

const fluidFileIO = `
def fluid_file_import_s$ID$(dict, path, framenr, file_format):
    try:
        framenr = str(framenr).zfill(4)
        for name, object in dict.items():
            file = os.path.join(path, name + '_' + framenr + file_format)
            if os.path.isfile(file):
                object.load(file)
            else:
                mantaMsg('Could not load file ' + str(file))
    except Exception as e:
        mantaMsg(str(e))

def fluid_file_export_s$ID$(dict, path, framenr, file_format, mode_override=True, skip_subframes=True):
    try:
        framenr = str(framenr).zfill(4)
        os.path.isdir(path) or os.makedirs(path)
        for name, object in dict.items():
            file = os.path.join(path, name + '_' + framenr + file_format)
            if not os.path.isfile(file) or mode_override:
                object.save(file)
    except Exception as e:
        mantaMsg(str(e))

def fluid_load_data_$ID$(path, framenr, file_format):
    mantaMsg('Fluid load data')
    fluid_file_import_s$ID$(dict=fluid_data_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)

def fluid_save_data_$ID$(path, framenr, file_format):
    mantaMsg('Fluid save data')
    fluid_file_export_s$ID$(dict=fluid_data_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)

def fluid_load_guiding_$ID$(path, framenr, file_format):
    mantaMsg('Fluid load guiding')
    fluid_file_import_s$ID$(dict=fluid_guiding_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)
`

const fluidStandalone = `
gui = None
if GUI:
    gui = Gui()
    gui.show()
    gui.pause()

cache_resumed = cache_frame_start > 1
if cache_resumed:
    load(cache_frame_start - 1)

mantaMsg('Start of simulation')
for frame in range(cache_frame_start, cache_frame_end + 1):
    mantaMsg('Simulating frame ' + str(frame))
    step(frame)
    save(frame)
mantaMsg('End of simulation')
`
